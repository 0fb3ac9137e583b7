package vitals

import "medadhere/internal/models"

// TemperatureStatus normal [35.5,37.5]，warning (37.5,38.0]，其余 critical
func TemperatureStatus(v float64) models.Status {
	switch {
	case v >= 35.5 && v <= 37.5:
		return models.StatusNormal
	case v > 37.5 && v <= 38.0:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

// HeartRateStatus normal [60,100]，warning [50,60) 或 (100,120]，其余 critical
func HeartRateStatus(v int) models.Status {
	switch {
	case v >= 60 && v <= 100:
		return models.StatusNormal
	case (v >= 50 && v < 60) || (v > 100 && v <= 120):
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

// OxygenStatus normal >=95，warning [90,95)，critical <90
func OxygenStatus(v int) models.Status {
	switch {
	case v >= 95:
		return models.StatusNormal
	case v >= 90:
		return models.StatusWarning
	default:
		return models.StatusCritical
	}
}

// HumidityStatus normal [40,60]，其余 warning（无 critical）
func HumidityStatus(v int) models.Status {
	if v >= 40 && v <= 60 {
		return models.StatusNormal
	}
	return models.StatusWarning
}

// Classify 计算样本每项体征的状态
func Classify(s models.VitalsSample) models.VitalStatuses {
	return models.VitalStatuses{
		Temperature: TemperatureStatus(s.TemperatureC),
		HeartRate:   HeartRateStatus(s.HeartRateBpm),
		OxygenLevel: OxygenStatus(s.OxygenLevelPercent),
		Humidity:    HumidityStatus(s.HumidityPercent),
	}
}

package vitals

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"medadhere/internal/models"
)

// Simulator 在没有真实设备时生成模拟体征
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator 创建模拟器；rnd 为 nil 时使用当前时间作为种子
func NewSimulator(rnd *rand.Rand) *Simulator {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{rnd: rnd}
}

// Generate 生成一个模拟样本
// 体温 [36.0, 38.5]（保留一位小数），心率 [60,100)，血氧 [95,100)，湿度 [40,60)
func (s *Simulator) Generate(now time.Time) models.VitalsSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	temp := math.Round((36.0+s.rnd.Float64()*2.5)*10) / 10
	return models.VitalsSample{
		TemperatureC:       temp,
		HeartRateBpm:       60 + s.rnd.Intn(40),
		OxygenLevelPercent: 95 + s.rnd.Intn(5),
		HumidityPercent:    40 + s.rnd.Intn(20),
		CapturedAt:         now,
		Source:             models.SourceSimulator,
		Connected:          false,
	}
}

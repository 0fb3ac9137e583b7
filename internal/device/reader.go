package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"medadhere/internal/metrics"
	"medadhere/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultTimeout 设备读取超时
const DefaultTimeout = 5 * time.Second

// dataPath 设备固件暴露的数据路径
const dataPath = "/data"

var (
	// ErrDeviceUnreachable 设备不可达（超时或网络错误）
	ErrDeviceUnreachable = errors.New("device unreachable")
	// ErrDeviceError 设备返回非 2xx 或无法解析的响应
	ErrDeviceError = errors.New("device error")

	errTimeout = errors.New("connection timeout")
)

// IsTimeout 判断是否为超时导致的不可达
func IsTimeout(err error) bool {
	return errors.Is(err, errTimeout)
}

// FailureMessage 面向用户的失败描述：超时为 "Connection timeout"，其它去掉分类前缀
func FailureMessage(err error) string {
	if IsTimeout(err) {
		return "Connection timeout"
	}
	msg := err.Error()
	msg = strings.TrimPrefix(msg, ErrDeviceUnreachable.Error()+": ")
	msg = strings.TrimPrefix(msg, ErrDeviceError.Error()+": ")
	return msg
}

// Reader 通过 HTTP 读取本地传感器设备（单次请求，不重试）
type Reader struct {
	client  *resty.Client
	address string
	url     string
	logger  *zap.Logger
}

// NewReader 创建设备读取器
// address: 设备 IP 或 host:port（也接受带 http:// 前缀的地址）
func NewReader(address string, timeout time.Duration, logger *zap.Logger) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")

	return &Reader{
		client:  client,
		address: address,
		url:     dataURL(address),
		logger:  logger,
	}
}

// Address 设备地址
func (r *Reader) Address() string { return r.address }

// Read 读取一次原始数据
func (r *Reader) Read(ctx context.Context) (*models.DeviceReading, error) {
	start := time.Now()
	resp, err := r.client.R().SetContext(ctx).Get(r.url)
	metrics.DeviceReadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if isTimeoutErr(err) {
			r.logger.Warn("Device read timed out", zap.String("url", r.url), zap.Duration("elapsed", time.Since(start)))
			return nil, fmt.Errorf("%w: %w", ErrDeviceUnreachable, errTimeout)
		}
		r.logger.Warn("Device read failed", zap.String("url", r.url), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnreachable, err)
	}

	if !resp.IsSuccess() {
		r.logger.Warn("Device returned error status",
			zap.String("url", r.url),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: Arduino responded with status: %d", ErrDeviceError, resp.StatusCode())
	}

	var reading models.DeviceReading
	if err := json.Unmarshal(resp.Body(), &reading); err != nil {
		r.logger.Warn("Device returned invalid payload", zap.String("url", r.url), zap.Error(err))
		return nil, fmt.Errorf("%w: invalid payload: %v", ErrDeviceError, err)
	}
	return &reading, nil
}

func dataURL(address string) string {
	base := strings.TrimRight(address, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return base + dataPath
}

func isTimeoutErr(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

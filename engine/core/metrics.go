package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// MetricsState keeps a rolling average of the last AVG_COUNT decode times
// alongside running totals.
type MetricsState struct {
	mu sync.Mutex

	DecodeAVGCounter uint8
	MStimes          [AVG_COUNT]float64
	Samples          uint8
	MSavg            float64
	Decodes          uint64
	Failures         uint64
	DecodedBytes     uint64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{
			MStimes: [AVG_COUNT]float64{0},
		}
	})
	return nil
}

// MetricsRecordDecode accounts for one decode that took elapsed and produced
// size bytes of pixels. Failed decodes are counted but kept out of the average.
func MetricsRecordDecode(elapsed time.Duration, size int, err error) {
	MetricsInitialize()
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()

	if err != nil {
		metricsState.Failures++
		return
	}
	metricsState.Decodes++
	metricsState.DecodedBytes += uint64(size)

	// Calculate decode ms average
	decode_ms := float64(elapsed) / float64(time.Millisecond)
	metricsState.MStimes[metricsState.DecodeAVGCounter] = decode_ms
	metricsState.DecodeAVGCounter++
	metricsState.DecodeAVGCounter %= AVG_COUNT
	if metricsState.Samples < AVG_COUNT {
		metricsState.Samples++
	}

	sum := 0.0
	for i := uint8(0); i < metricsState.Samples; i++ {
		sum += metricsState.MStimes[i]
	}
	metricsState.MSavg = sum / float64(metricsState.Samples)
}

// MetricsDecodeTime returns the average decode time in milliseconds.
func MetricsDecodeTime() float64 {
	MetricsInitialize()
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.MSavg
}

func MetricsDecodes() (decodes, failures uint64) {
	MetricsInitialize()
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.Decodes, metricsState.Failures
}

func MetricsDecodedBytes() uint64 {
	MetricsInitialize()
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	return metricsState.DecodedBytes
}

// MetricsReset clears every counter.
func MetricsReset() {
	MetricsInitialize()
	metricsState.mu.Lock()
	defer metricsState.mu.Unlock()
	metricsState.DecodeAVGCounter = 0
	metricsState.MStimes = [AVG_COUNT]float64{0}
	metricsState.Samples = 0
	metricsState.MSavg = 0
	metricsState.Decodes = 0
	metricsState.Failures = 0
	metricsState.DecodedBytes = 0
}

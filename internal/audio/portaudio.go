package audio

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	sampleRate      = 44100
	framesPerBuffer = 512
	toneFrequency   = 880.0
	toneDuration    = 120 * time.Millisecond
	toneVolume      = 0.25
	fadeFrames      = 256
)

type portAudioPlayer struct {
	mu       sync.Mutex
	deviceID string
	tone     []float32
}

// New initializes PortAudio and returns a player for the named output
// device, or the default device when deviceID is empty.
func New(deviceID string) (Player, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	n := int(toneDuration.Seconds() * sampleRate)
	return &portAudioPlayer{
		deviceID: deviceID,
		tone:     sine(toneFrequency, sampleRate, n, toneVolume),
	}, nil
}

func (p *portAudioPlayer) device() (*portaudio.DeviceInfo, error) {
	if p.deviceID == "" {
		device, err := portaudio.DefaultOutputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default output device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.Name == p.deviceID && d.MaxOutputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device not found: %s", p.deviceID)
}

// Beep plays the tone and returns when it has been handed to the device.
// Overlapping beeps are serialized.
func (p *portAudioPlayer) Beep(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	device, err := p.device()
	if err != nil {
		return err
	}

	buffer := make([]float32, framesPerBuffer)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowOutputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: len(buffer),
	}, buffer)
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(p.tone); off += len(buffer) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buffer, p.tone[off:])
		clear(buffer[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
	}
	return nil
}

func (p *portAudioPlayer) Close() error {
	return portaudio.Terminate()
}

// ListOutputDevices returns the output devices PortAudio can see.
// PortAudio must be initialized, i.e. a player created with New.
func ListOutputDevices() ([]OutputDevice, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	result := make([]OutputDevice, 0, len(devices))
	defaultDevice, _ := portaudio.DefaultOutputDevice()

	for _, d := range devices {
		if d.MaxOutputChannels > 0 {
			result = append(result, OutputDevice{
				ID:      d.Name,
				Name:    d.Name,
				Default: d == defaultDevice,
			})
		}
	}

	return result, nil
}

// sine renders n samples of a tone with linear fades at both ends so the
// speaker does not click.
func sine(freq float64, rate, n int, volume float32) []float32 {
	out := make([]float32, n)
	fade := min(fadeFrames, n/2)
	for i := range out {
		gain := volume
		switch {
		case i < fade:
			gain *= float32(i) / float32(fade)
		case i >= n-fade:
			gain *= float32(n-1-i) / float32(fade)
		}
		out[i] = gain * float32(math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

package audiosource

import (
	"github.com/gordonklaus/portaudio"
)

// nativeBackend opens an input-only portaudio stream, grounded in the same
// OpenStream/Start/Read/Stop/Close sequence the teacher's AudioEngine uses
// for its capture stream, minus the paired playback side this one-way
// pipeline has no use for.
type nativeBackend struct {
	stream *portaudio.Stream
	buf    []float32
}

func (n *nativeBackend) Open(cfg Config) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return err
	}

	list := make([]Device, 0, len(devices))
	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			list = append(list, Device{ID: i, Name: d.Name})
		}
	}
	picked, ok := selectDevice(list, cfg)
	if !ok {
		return ErrUnavailable
	}
	dev := devices[picked.ID]

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: cfg.FramesPerBuffer,
	}

	buf := make([]float32, cfg.FramesPerBuffer*cfg.Channels)
	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	n.stream = stream
	n.buf = buf
	return nil
}

func (n *nativeBackend) Read() ([]float32, error) {
	if err := n.stream.Read(); err != nil {
		return nil, err
	}
	return n.buf, nil
}

func (n *nativeBackend) Close() error {
	if n.stream == nil {
		return nil
	}
	n.stream.Stop()
	err := n.stream.Close()
	n.stream = nil
	return err
}

// nativeLister enumerates portaudio input devices for listDevices().
type nativeLister struct{}

func (nativeLister) ListInputDevices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var out []Device
	for i, d := range devices {
		if d.MaxInputChannels > 0 {
			out = append(out, Device{ID: i, Name: d.Name})
		}
	}
	return out, nil
}

package audio

// Device is an immutable snapshot of an input device taken from the OS
// audio layer at resolution time.
type Device struct {
	Index            int
	Name             string
	HostAPI          string
	MaxInputChannels int
}

// Message is the unit carried on a source queue: either one captured block
// of mono float32 samples, or the end-of-stream sentinel. The sentinel is
// the only termination signal a worker receives.
type Message struct {
	Samples     []float32
	EndOfStream bool
}

// Catalog enumerates available audio input devices
type Catalog interface {
	Devices() ([]Device, error)
}

// Capture bridges one OS input stream to a source queue. Implementations
// must never block inside the hardware delivery path: a block is copied and
// enqueued, or dropped.
type Capture interface {
	Start(out chan<- Message) error
	Stop() error
	SetMuted(muted bool)
	Muted() bool
}

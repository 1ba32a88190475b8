package i2c

import "fmt"

// OpKind is one primitive bus action inside a command sequence.
type OpKind uint8

const (
	OpStart OpKind = iota // start or repeated-start condition
	OpWrite               // write Data, each byte acknowledged by the peripheral
	OpRead                // read into Buf; last byte not acknowledged when LastNACK
	OpStop                // stop condition
)

// Op is one step of an assembled wire transaction.
type Op struct {
	Kind     OpKind
	Data     []byte // OpWrite payload
	Buf      []byte // OpRead destination
	Ack      bool   // OpWrite: expect per-byte ACK
	LastNACK bool   // OpRead: controller NACKs the final byte
}

// Sequence is the wire-level command list for one transaction,
// submitted to the port driver as a unit.
type Sequence struct {
	Ops []Op
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Start() {
	s.Ops = append(s.Ops, Op{Kind: OpStart})
}

func (s *Sequence) WriteByte(b byte, ack bool) {
	s.Ops = append(s.Ops, Op{Kind: OpWrite, Data: []byte{b}, Ack: ack})
}

func (s *Sequence) Write(p []byte, ack bool) {
	s.Ops = append(s.Ops, Op{Kind: OpWrite, Data: p, Ack: ack})
}

func (s *Sequence) Read(buf []byte, lastNACK bool) {
	s.Ops = append(s.Ops, Op{Kind: OpRead, Buf: buf, LastNACK: lastNACK})
}

func (s *Sequence) Stop() {
	s.Ops = append(s.Ops, Op{Kind: OpStop})
}

// Message is one addressed segment of a sequence: everything between a
// (repeated) start and the next start or stop, with the address byte
// decoded. This is the form the Linux I2C_RDWR ioctl and periph.io
// Tx() consume.
type Message struct {
	Addr uint8 // 7-bit address
	Read bool
	W    []byte
	R    []byte
}

// Messages lowers the op list into addressed segments. The first write
// after each start carries the address byte; that is how the builder
// methods above emit it.
func (s *Sequence) Messages() ([]Message, error) {
	var msgs []Message
	var cur *Message
	addressed := false

	flush := func() error {
		if cur == nil {
			return nil
		}
		if !addressed {
			return fmt.Errorf("%w: segment %d has no address byte", ErrInvalidArg, len(msgs))
		}
		msgs = append(msgs, *cur)
		cur = nil
		return nil
	}

	for _, op := range s.Ops {
		switch op.Kind {
		case OpStart:
			if err := flush(); err != nil {
				return nil, err
			}
			cur = &Message{}
			addressed = false
		case OpWrite:
			if cur == nil {
				return nil, fmt.Errorf("%w: write before start", ErrInvalidArg)
			}
			data := op.Data
			if !addressed {
				if len(data) == 0 {
					continue
				}
				cur.Addr = data[0] >> 1
				cur.Read = data[0]&1 != 0
				addressed = true
				data = data[1:]
			}
			if len(data) > 0 {
				if cur.Read {
					return nil, fmt.Errorf("%w: write data in read segment", ErrInvalidArg)
				}
				cur.W = append(cur.W, data...)
			}
		case OpRead:
			if cur == nil || !addressed || !cur.Read {
				return nil, fmt.Errorf("%w: read outside an addressed read segment", ErrInvalidArg)
			}
			cur.R = op.Buf
		case OpStop:
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return msgs, nil
}

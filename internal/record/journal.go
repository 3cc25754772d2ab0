// Package record persists observer packet streams as compressed session
// journals and keeps a small sqlite index of recorded sessions.
//
// A journal file is one uncompressed JSON header line followed by a zstd
// stream of length-prefixed packets. TickMark packets close each tick.
package record

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/Faultbox/pivot/internal/protocol"
)

// Magic identifies a journal header.
const Magic = "PIVOTJ"

// JournalVersion is the current journal format version.
const JournalVersion = 1

var (
	// ErrNotJournal reports a file whose header is not a journal header.
	ErrNotJournal = errors.New("not a journal file")
)

// Header is the uncompressed first line of a journal file.
type Header struct {
	Magic     string `json:"magic"`
	Version   int    `json:"version"`
	Session   string `json:"session"`
	TickRate  int    `json:"tick_rate"`
	StartedAt string `json:"started_at"`
}

// Writer appends packets to a journal file. Writes are buffered; Close
// flushes the stream.
type Writer struct {
	f   *os.File
	enc *zstd.Encoder
	bw  *bufio.Writer

	packets uint64
	ticks   uint32
}

// NewWriter creates a journal file and writes its header.
func NewWriter(path string, hdr Header) (*Writer, error) {
	hdr.Magic = Magic
	hdr.Version = JournalVersion

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	hb, err := json.Marshal(hdr)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Write(append(hb, '\n')); err != nil {
		_ = f.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Writer{
		f:   f,
		enc: enc,
		bw:  bufio.NewWriterSize(enc, 256*1024),
	}, nil
}

// WritePacket appends one packet to the journal.
func (w *Writer) WritePacket(p protocol.Packet) error {
	data := p.Encode()
	var prefix [2]byte
	prefix[0] = byte(len(data))
	prefix[1] = byte(len(data) >> 8)

	if _, err := w.bw.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.bw.Write(data); err != nil {
		return err
	}

	w.packets++
	if _, ok := p.(*protocol.TickMark); ok {
		w.ticks++
	}
	return nil
}

// Packets returns the number of packets written.
func (w *Writer) Packets() uint64 {
	return w.packets
}

// Ticks returns the number of tick marks written.
func (w *Writer) Ticks() uint32 {
	return w.ticks
}

// Close flushes buffered packets and closes the file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		_ = w.enc.Close()
		_ = w.f.Close()
		return err
	}
	if err := w.enc.Close(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// TickFrame groups the packets of one simulation tick.
type TickFrame struct {
	Tick    uint32
	Packets []protocol.Packet
}

// Reader iterates the packets of a journal file.
type Reader struct {
	f   *os.File
	dec *zstd.Decoder
	hdr Header
}

// OpenReader opens a journal file and validates its header.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(f, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading journal header: %w", err)
	}

	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotJournal, err)
	}
	if hdr.Magic != Magic {
		_ = f.Close()
		return nil, fmt.Errorf("%w: magic %q", ErrNotJournal, hdr.Magic)
	}
	if hdr.Version != JournalVersion {
		_ = f.Close()
		return nil, fmt.Errorf("unsupported journal version %d", hdr.Version)
	}

	// The remaining buffered bytes belong to the compressed stream.
	dec, err := zstd.NewReader(br)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Reader{f: f, dec: dec, hdr: hdr}, nil
}

// Header returns the journal header.
func (r *Reader) Header() Header {
	return r.hdr
}

// Next returns the next packet, or io.EOF at the end of the journal.
func (r *Reader) Next() (protocol.Packet, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(r.dec, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading packet length: %w", err)
	}

	n := int(prefix[0]) | int(prefix[1])<<8
	if n == 0 {
		return nil, fmt.Errorf("zero length packet")
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r.dec, buf); err != nil {
		return nil, fmt.Errorf("reading packet body: %w", err)
	}
	return protocol.Decode(buf)
}

// NextTick returns the packets of the next tick, closed by its TickMark.
// Returns io.EOF at a clean end and io.ErrUnexpectedEOF if the journal
// stops mid-tick.
func (r *Reader) NextTick() (*TickFrame, error) {
	frame := &TickFrame{}
	for {
		p, err := r.Next()
		if err == io.EOF {
			if len(frame.Packets) == 0 {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
		if tm, ok := p.(*protocol.TickMark); ok {
			frame.Tick = tm.Tick
			return frame, nil
		}
		frame.Packets = append(frame.Packets, p)
	}
}

// Close releases the decoder and closes the file.
func (r *Reader) Close() error {
	r.dec.Close()
	return r.f.Close()
}

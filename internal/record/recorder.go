package record

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot/internal/protocol"
)

// Recorder journals the packet stream of one daemon session and files it
// in the session index on Close. Methods are called from the world tick
// goroutine.
type Recorder struct {
	w    *Writer
	idx  *Index
	sess Session
	log  *zap.Logger

	failed bool
}

// NewRecorder starts a new session journal under dir and opens the index.
func NewRecorder(dir, indexPath string, tickRate, characters int, log *zap.Logger) (*Recorder, error) {
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now().UTC()
	id := start.Format("20060102-150405")
	path := filepath.Join(dir, id+".pvj")

	idx, err := OpenIndex(indexPath)
	if err != nil {
		return nil, err
	}

	w, err := NewWriter(path, Header{
		Session:   id,
		TickRate:  tickRate,
		StartedAt: start.Format(time.RFC3339Nano),
	})
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	return &Recorder{
		w:   w,
		idx: idx,
		log: log,
		sess: Session{
			ID:         id,
			StartedAt:  start.Unix(),
			TickRate:   tickRate,
			Characters: characters,
			Path:       path,
		},
	}, nil
}

// SessionID returns the id of the session being recorded.
func (r *Recorder) SessionID() string {
	return r.sess.ID
}

// Path returns the journal file path.
func (r *Recorder) Path() string {
	return r.sess.Path
}

// OnPacket journals one packet. After a write error the recorder logs a
// warning and drops the rest of the stream.
func (r *Recorder) OnPacket(p protocol.Packet) {
	if r.failed {
		return
	}
	if err := r.w.WritePacket(p); err != nil {
		r.log.Warn("journal write failed, recording stopped",
			zap.String("session", r.sess.ID),
			zap.Error(err))
		r.failed = true
	}
}

// Close flushes the journal, files the session row, and closes the index.
func (r *Recorder) Close() error {
	err := r.w.Close()
	if err == nil && !r.failed {
		r.sess.Ticks = r.w.Ticks()
		if fi, statErr := os.Stat(r.sess.Path); statErr == nil {
			r.sess.Bytes = fi.Size()
		}
		r.idx.Record(r.sess)
		r.log.Info("session recorded",
			zap.String("session", r.sess.ID),
			zap.Uint32("ticks", r.sess.Ticks),
			zap.Int64("bytes", r.sess.Bytes))
	}
	if cerr := r.idx.Close(); err == nil {
		err = cerr
	}
	return err
}

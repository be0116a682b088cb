package server

import (
	"context"
	"sync"

	"github.com/CK6170/Torquecal-go/calibration"
	"github.com/CK6170/Torquecal-go/models"
)

// DeviceSession is the connected rig. One calibration runs at a time.
type DeviceSession struct {
	mu sync.Mutex

	configID string
	cfg      models.Config
	sess     *calibration.Session

	opCancel context.CancelFunc
	running  bool
	recordID string
	lastErr  string
}

func (d *DeviceSession) connectedLocked() bool { return d.sess != nil }

func (d *DeviceSession) cancelLocked() {
	if d.opCancel != nil {
		d.opCancel()
		d.opCancel = nil
	}
}

// detachLocked forgets the current session and hands it back for closing
// outside the lock.
func (d *DeviceSession) detachLocked() *calibration.Session {
	sess := d.sess
	d.sess = nil
	d.cfg = models.Config{}
	d.configID = ""
	return sess
}

func (d *DeviceSession) disconnectLocked() error {
	if sess := d.detachLocked(); sess != nil {
		return sess.Close()
	}
	return nil
}

func (d *DeviceSession) status() CalStatusResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return CalStatusResponse{
		Connected: d.connectedLocked(),
		Running:   d.running,
		RecordID:  d.recordID,
		Error:     d.lastErr,
	}
}

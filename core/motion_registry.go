package core

import (
	"sync"

	"gopper/motion"
)

var (
	motionMu          sync.RWMutex
	motionControllers = make(map[uint8]*motion.Controller)
)

// RegisterMotionController installs a configured controller under oid,
// replacing any previous registration for that OID.
func RegisterMotionController(oid uint8, c *motion.Controller) {
	motionMu.Lock()
	defer motionMu.Unlock()
	motionControllers[oid] = c
}

// GetMotionController looks up a previously configured controller, or nil
// if oid has not been configured.
func GetMotionController(oid uint8) *motion.Controller {
	motionMu.RLock()
	defer motionMu.RUnlock()
	return motionControllers[oid]
}

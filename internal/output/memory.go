package output

import (
	"context"
	"sync"

	"github.com/manifest-network/tealcounter/internal/models"
)

// MemoryOutputHandler keeps history in process memory. It is used when no
// database is configured.
type MemoryOutputHandler struct {
	mu            sync.RWMutex
	deployments   []models.Deployment
	calls         []models.Call
	verifications []models.Verification
}

func NewMemoryOutputHandler() *MemoryOutputHandler {
	return &MemoryOutputHandler{}
}

func (h *MemoryOutputHandler) WriteDeployment(_ context.Context, deployment *models.Deployment) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deployments = append(h.deployments, *deployment)
	return nil
}

func (h *MemoryOutputHandler) WriteCall(_ context.Context, call *models.Call) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, *call)
	return nil
}

func (h *MemoryOutputHandler) WriteVerification(_ context.Context, verification *models.Verification) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.verifications = append(h.verifications, *verification)
	return nil
}

func (h *MemoryOutputHandler) GetLatestDeployment(_ context.Context, creator string) (*models.Deployment, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.deployments) - 1; i >= 0; i-- {
		d := h.deployments[i]
		if d.Creator == creator && !d.Deleted {
			return &d, nil
		}
	}
	return nil, nil
}

func (h *MemoryOutputHandler) MarkDeleted(_ context.Context, appID uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.deployments {
		if h.deployments[i].AppID == appID {
			h.deployments[i].Deleted = true
		}
	}
	return nil
}

// Calls returns the recorded calls for appID in the order they were written.
func (h *MemoryOutputHandler) Calls(appID uint64) []models.Call {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []models.Call
	for _, c := range h.calls {
		if c.AppID == appID {
			out = append(out, c)
		}
	}
	return out
}

// Verifications returns a copy of the recorded verifications.
func (h *MemoryOutputHandler) Verifications() []models.Verification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]models.Verification(nil), h.verifications...)
}

func (h *MemoryOutputHandler) Close() error {
	return nil
}

var _ OutputHandler = (*MemoryOutputHandler)(nil)

package output

import (
	"context"

	"github.com/manifest-network/tealcounter/internal/models"
)

type OutputHandler interface {
	// WriteDeployment records a newly created application.
	WriteDeployment(ctx context.Context, deployment *models.Deployment) error

	// WriteCall records an application call made against a deployment.
	WriteCall(ctx context.Context, call *models.Call) error

	// WriteVerification records the outcome of a verification.
	WriteVerification(ctx context.Context, verification *models.Verification) error

	// GetLatestDeployment returns the most recent live deployment by creator,
	// or nil when there is none.
	GetLatestDeployment(ctx context.Context, creator string) (*models.Deployment, error)

	// MarkDeleted flags the deployment of appID as deleted.
	MarkDeleted(ctx context.Context, appID uint64) error

	// Close closes the output handler.
	Close() error
}

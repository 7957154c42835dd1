package auth

import (
	"context"
	"fmt"
	"slices"

	"github.com/propscribe/propscribe/pkg/models"
)

// SystemUserID is the principal id of authenticated peer services.
const SystemUserID = "system"

// SystemResolver authenticates inter-service calls carrying a signed
// service-account token. Only the deployment's own service account,
// with a verified email and this service as audience, is accepted.
type SystemResolver struct {
	verifier      TokenVerifier
	projectID     string
	componentName string
}

// NewSystemResolver creates a resolver for inter-service tokens.
func NewSystemResolver(verifier TokenVerifier, projectID, componentName string) *SystemResolver {
	return &SystemResolver{verifier: verifier, projectID: projectID, componentName: componentName}
}

func (r *SystemResolver) Name() string { return "system" }

func (r *SystemResolver) Resolve(ctx context.Context, rawToken string) (models.Identity, error) {
	claims, err := r.verifier.Verify(ctx, rawToken)
	if err != nil {
		return models.Identity{}, unauthorized(err.Error())
	}

	if !slices.Contains(claims.Audience, r.projectID) {
		return models.Identity{}, unauthorized("token audience does not include this project")
	}
	if !claims.EmailVerified {
		return models.Identity{}, unauthorized("service account email not verified")
	}

	expected := fmt.Sprintf("%s@%s.iam.gserviceaccount.com", r.componentName, r.projectID)
	if claims.Email != expected {
		return models.Identity{}, unauthorized("unexpected service account email")
	}

	return models.Identity{System: true, UserID: SystemUserID}, nil
}

var _ Resolver = (*SystemResolver)(nil)

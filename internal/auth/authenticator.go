// Package auth implements the authentication stage of the input pipeline:
// credential validation, identity extraction, permission resolution, and
// their composition into a single Authenticate call.
//
// Authentication runs before validation and processing so unauthenticated
// callers never consume validation or normalization resources. Every call is
// stateless request/response; nothing is cached between requests.
package auth

import (
	"context"
	"time"

	"janus/internal/common/errors"
	"janus/internal/common/logger"
	"janus/internal/models"
)

// CredentialValidator checks that credentials for one source type are
// structurally valid and extracts the acting user. Implementations must keep
// ValidateCredentialFormat fast and local: no network calls, no permission
// logic.
type CredentialValidator interface {
	// SourceType returns the source this validator handles ("api", "webhook", "slack").
	SourceType() string

	// ValidateCredentialFormat checks structure, expiry, and basic validity
	// only. Returns an *errors.AuthenticationError on malformed credentials.
	ValidateCredentialFormat(creds *models.SourceCredentials) error

	// ExtractUserIdentity derives the acting user from credential data or the
	// request context, depending on the source format.
	ExtractUserIdentity(ctx context.Context, creds *models.SourceCredentials, requestContext map[string]interface{}) (string, error)
}

// CredentialMetadata extracts audit metadata about the credential itself (not
// the user). Shared default for all validators.
func CredentialMetadata(creds *models.SourceCredentials) map[string]interface{} {
	return map[string]interface{}{
		"source_type":  creds.SourceType,
		"source_id":    creds.SourceID,
		"validated_at": time.Now().UTC().Format(time.RFC3339),
	}
}

// PermissionResolver determines what a user is allowed to do. Resolution can
// be expensive (store lookups); it runs once per request.
type PermissionResolver interface {
	// ResolveUserPermissions returns the permissions assigned to the user for
	// the source type. Unknown users resolve to an empty list, not an error.
	ResolveUserPermissions(ctx context.Context, userID, sourceType string) ([]string, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// StoreResolver resolves permissions through a PermissionStore.
type StoreResolver struct {
	store PermissionStore
}

func NewStoreResolver(store PermissionStore) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) ResolveUserPermissions(ctx context.Context, userID, sourceType string) ([]string, error) {
	perms, err := r.store.UserPermissions(ctx, userID, sourceType)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		return []string{}, nil
	}
	return perms, nil
}

func (r *StoreResolver) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Authenticator composes a CredentialValidator and a PermissionResolver into
// the authentication stage.
type Authenticator struct {
	validator CredentialValidator
	resolver  PermissionResolver
	logger    logger.Logger
}

func NewAuthenticator(validator CredentialValidator, resolver PermissionResolver, log logger.Logger) *Authenticator {
	return &Authenticator{
		validator: validator,
		resolver:  resolver,
		logger:    log.WithFields(map[string]interface{}{"sourceType": validator.SourceType()}),
	}
}

// SourceType returns the source type this authenticator handles.
func (a *Authenticator) SourceType() string {
	return a.validator.SourceType()
}

// Authenticate runs format validation, identity extraction, permission
// resolution, and intersection, strictly in that order, short-circuiting on
// the first failure.
//
// The returned error is uniform for credential and identity failures: the
// specific cause is logged internally but not surfaced, so callers cannot
// probe which credentials correspond to real users.
func (a *Authenticator) Authenticate(ctx context.Context, creds *models.SourceCredentials, requestContext map[string]interface{}) (*models.AuthContext, error) {
	if err := a.validator.ValidateCredentialFormat(creds); err != nil {
		a.logger.Debug("credential format rejected", map[string]interface{}{
			"sourceId": creds.SourceID,
			"cause":    err.Error(),
		})
		return nil, errors.NewAuthenticationError("authentication_failed", creds.SourceType)
	}

	userID, err := a.validator.ExtractUserIdentity(ctx, creds, requestContext)
	if err != nil {
		a.logger.Debug("identity extraction failed", map[string]interface{}{
			"sourceId": creds.SourceID,
			"cause":    err.Error(),
		})
		return nil, errors.NewAuthenticationError("authentication_failed", creds.SourceType)
	}

	userPerms, err := a.resolver.ResolveUserPermissions(ctx, userID, creds.SourceType)
	if err != nil {
		// Store failure, not a bad credential: retryable.
		a.logger.Error("permission resolution failed", map[string]interface{}{
			"sourceId": creds.SourceID,
			"cause":    err.Error(),
		})
		return nil, errors.NewAuthenticationUnavailableError(creds.SourceType)
	}

	finalPerms := ComputeFinalPermissions(creds.CredentialPermissions, userPerms)

	authCtx := a.createAuthContext(userID, creds, finalPerms, requestContext)

	a.logger.Debug("authenticated", map[string]interface{}{
		"userId":           userID,
		"grantedCount":     len(finalPerms),
		"credentialScoped": len(creds.CredentialPermissions),
	})

	return authCtx, nil
}

// createAuthContext is the pure assembly step: it stamps authenticated_at and
// copies the credential expiry onto the context.
func (a *Authenticator) createAuthContext(userID string, creds *models.SourceCredentials, finalPerms []string, requestContext map[string]interface{}) *models.AuthContext {
	metadata := CredentialMetadata(creds)
	metadata["method"] = a.authMethod()

	sessionID, _ := requestContext["session_id"].(string)

	return &models.AuthContext{
		UserID:             userID,
		SourceType:         creds.SourceType,
		SourceID:           creds.SourceID,
		GrantedPermissions: finalPerms,
		SessionID:          sessionID,
		AuthenticatedAt:    time.Now().UTC(),
		ExpiresAt:          creds.ExpiresAt,
		AuthMetadata:       metadata,
	}
}

func (a *Authenticator) authMethod() string {
	switch a.validator.SourceType() {
	case "api":
		return "api_key"
	case "webhook":
		return "webhook_signature"
	case "slack":
		return "slack_signature"
	default:
		return "unknown"
	}
}

// HealthCheck reports whether the permission store behind the resolver is
// reachable.
func (a *Authenticator) HealthCheck(ctx context.Context) bool {
	return a.resolver.Ping(ctx) == nil
}

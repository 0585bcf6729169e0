package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/standup-bot/internal/persistence"
)

// OrganizationService registers organizations and their first administrator.
type OrganizationService struct {
	store       persistence.Store
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewOrganizationService constructs an organization service with the default logger.
func NewOrganizationService(store persistence.Store, idGenerator func() string, now func() time.Time) *OrganizationService {
	return NewOrganizationServiceWithLogger(store, idGenerator, now, nil)
}

// NewOrganizationServiceWithLogger constructs an organization service with a specified logger.
func NewOrganizationServiceWithLogger(store persistence.Store, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OrganizationService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &OrganizationService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *OrganizationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OrganizationService", operation, attrs...)
}

// RegisterOrganization creates an organization and its creator as the
// organization administrator. Both records are written or neither is.
func (s *OrganizationService) RegisterOrganization(ctx context.Context, params RegisterOrganizationParams) (result Registration, err error) {
	if s == nil {
		return Registration{}, fmt.Errorf("OrganizationService is nil")
	}
	logger := s.loggerWith(ctx, "RegisterOrganization", "identity", params.CreatorIdentity)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to register organization", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("organization_id", result.Organization.ID).InfoContext(ctx, "organization registered")
	}()

	vErr := &ValidationError{}
	name := validateName(vErr, "name", "Organization name", params.Name)
	domain, ok := NormalizeDomain(params.Domain)
	if !ok {
		vErr.add("domain", "Please provide a valid domain, for example company.com")
	}
	if strings.TrimSpace(params.CreatorIdentity) == "" {
		vErr.add("identity", "Your chat identity is missing")
	}
	if err := vErr.orNil(); err != nil {
		return Registration{}, err
	}

	email, ok := NormalizeEmail(params.CreatorEmail)
	if !ok {
		email = placeholderEmail(params.CreatorIdentity, domain)
	}
	creatorName := strings.TrimSpace(params.CreatorName)
	if creatorName == "" {
		creatorName = params.CreatorIdentity
	}

	now := s.now().UTC()
	org := persistence.Organization{
		ID:              s.idGenerator(),
		Name:            name,
		Domain:          domain,
		CreatorIdentity: params.CreatorIdentity,
		CreatedAt:       now,
	}
	admin := persistence.User{
		Identity:       params.CreatorIdentity,
		Name:           creatorName,
		Email:          email,
		Role:           persistence.RoleOrgAdmin,
		OrganizationID: org.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.store.WithinTx(ctx, func(repos persistence.Repositories) error {
		if existing, err := repos.Users().GetUser(ctx, params.CreatorIdentity); err == nil {
			return alreadyMember(ctx, repos, existing)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}
		if _, err := repos.Organizations().GetOrganizationByName(ctx, name); err == nil {
			return domainError(ErrAlreadyExists, "Organization '%s' already exists", name)
		} else if !errors.Is(err, persistence.ErrNotFound) {
			return err
		}

		if err := repos.Organizations().CreateOrganization(ctx, org); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return domainError(ErrAlreadyExists, "Organization '%s' already exists", name)
			}
			return err
		}
		if err := repos.Users().CreateUser(ctx, admin); err != nil {
			if errors.Is(err, persistence.ErrDuplicate) {
				return domainError(ErrAlreadyExists, "A user with email %s already exists", email)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return Registration{}, err
	}
	return Registration{Organization: org, Admin: admin}, nil
}

func alreadyMember(ctx context.Context, repos persistence.Repositories, user persistence.User) error {
	org, err := repos.Organizations().GetOrganization(ctx, user.OrganizationID)
	if err != nil {
		return domainError(ErrAlreadyExists, "You already belong to an organization")
	}
	return domainError(ErrAlreadyExists, "You already belong to organization: %s", org.Name)
}

var nonLocalPart = regexp.MustCompile(`[^a-z0-9._-]+`)

// placeholderEmail keeps the unique email column satisfied for chat users
// whose payload carried no address.
func placeholderEmail(identity, domain string) string {
	local := strings.Trim(nonLocalPart.ReplaceAllString(strings.ToLower(identity), "-"), "-.")
	if local == "" {
		local = "user"
	}
	return local + "@" + domain
}

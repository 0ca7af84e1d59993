package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tiredist/tiredist-backend/pkg/config"
	"github.com/tiredist/tiredist-backend/pkg/db"
	"github.com/tiredist/tiredist-backend/pkg/db/models"
	"github.com/tiredist/tiredist-backend/pkg/enums"
	pkgerrors "github.com/tiredist/tiredist-backend/pkg/errors"
	"github.com/tiredist/tiredist-backend/pkg/logger"
	"github.com/tiredist/tiredist-backend/pkg/outbox"
	"github.com/tiredist/tiredist-backend/pkg/outbox/payloads"
	"github.com/tiredist/tiredist-backend/pkg/security"
)

const resolverCacheTTL = 5 * time.Minute

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

var marginOne = decimal.NewFromInt(1)

type tenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	FindDistributor(ctx context.Context) (*models.Tenant, error)
	FindActiveBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	FindActiveByCustomDomain(ctx context.Context, domain string) (*models.Tenant, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.Tenant, error)
	CreateTx(tx *gorm.DB, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
}

type catalogCopier interface {
	CopyCatalogTx(tx *gorm.DB, fromTenantID, toTenantID uuid.UUID) (int, error)
}

type adminCreator interface {
	CreateTx(tx *gorm.DB, user *models.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type resolverCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	ResolverCacheKey(host string) string
}

// Service exposes tenant operations.
type Service interface {
	ResolveHost(ctx context.Context, host string) (*ResolvedTenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*TenantDTO, error)
	ListResellers(ctx context.Context) ([]TenantDTO, error)
	CreateReseller(ctx context.Context, input CreateResellerInput) (*CreateResellerResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateTenantInput) (*TenantDTO, error)
}

type service struct {
	repo        tenantRepository
	catalog     catalogCopier
	users       adminCreator
	tx          txRunner
	events      eventEmitter
	cache       resolverCache
	platform    config.PlatformConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService builds a tenant service with the provided collaborators. The
// cache may be nil; resolution then always hits the database.
func NewService(
	repo tenantRepository,
	catalog catalogCopier,
	users adminCreator,
	tx txRunner,
	events eventEmitter,
	cache resolverCache,
	platform config.PlatformConfig,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tenant repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog copier required")
	}
	if users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	return &service{
		repo:        repo,
		catalog:     catalog,
		users:       users,
		tx:          tx,
		events:      events,
		cache:       cache,
		platform:    platform,
		passwordCfg: passwordCfg,
		logg:        logg,
	}, nil
}

// ResolveHost maps a normalized request host to the tenant that owns it.
// The root domain and its www alias resolve to the distributor; any other
// label under the root domain is treated as a reseller slug; everything else
// must match a custom domain exactly. Unknown and inactive hosts produce the
// same NOT_FOUND response.
func (s *service) ResolveHost(ctx context.Context, host string) (*ResolvedTenant, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
	}

	if cached := s.cachedResolution(ctx, host); cached != nil {
		return cached, nil
	}

	resolved, err := s.resolveHostUncached(ctx, host)
	if err != nil {
		return nil, err
	}

	s.cacheResolution(ctx, host, resolved)
	return resolved, nil
}

func (s *service) resolveHostUncached(ctx context.Context, host string) (*ResolvedTenant, error) {
	root := strings.ToLower(strings.TrimSpace(s.platform.RootDomain))

	if host == root || host == "www."+root {
		tenant, err := s.repo.FindDistributor(ctx)
		if err != nil {
			return nil, notFoundOrDependency(err)
		}
		return &ResolvedTenant{ID: tenant.ID, Type: tenant.Type, Slug: tenant.Slug}, nil
	}

	if suffix := "." + root; strings.HasSuffix(host, suffix) {
		label := strings.TrimSuffix(host, suffix)
		if label == "" || strings.Contains(label, ".") {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
		}
		tenant, err := s.repo.FindActiveBySlug(ctx, label)
		if err != nil {
			return nil, notFoundOrDependency(err)
		}
		return &ResolvedTenant{ID: tenant.ID, Type: tenant.Type, Slug: tenant.Slug}, nil
	}

	tenant, err := s.repo.FindActiveByCustomDomain(ctx, host)
	if err != nil {
		return nil, notFoundOrDependency(err)
	}
	return &ResolvedTenant{ID: tenant.ID, Type: tenant.Type, Slug: tenant.Slug}, nil
}

func (s *service) cachedResolution(ctx context.Context, host string) *ResolvedTenant {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, s.cache.ResolverCacheKey(host))
	if err != nil || raw == "" {
		return nil
	}
	var resolved ResolvedTenant
	if err := json.Unmarshal([]byte(raw), &resolved); err != nil {
		return nil
	}
	return &resolved
}

func (s *service) cacheResolution(ctx context.Context, host string, resolved *ResolvedTenant) {
	if s.cache == nil || resolved == nil {
		return
	}
	payload, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.ResolverCacheKey(host), string(payload), resolverCacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "resolver cache write failed")
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*TenantDTO, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrDependency(err)
	}
	return toDTO(tenant), nil
}

func (s *service) ListResellers(ctx context.Context) ([]TenantDTO, error) {
	distributor, err := s.repo.FindDistributor(ctx)
	if err != nil {
		return nil, notFoundOrDependency(err)
	}
	children, err := s.repo.ListChildren(ctx, distributor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list resellers")
	}
	out := make([]TenantDTO, 0, len(children))
	for i := range children {
		out = append(out, *toDTO(&children[i]))
	}
	return out, nil
}

// CreateReseller onboards a new storefront: tenant row, full catalog copy from
// the distributor, and an admin user with a generated temporary password. The
// whole onboarding runs in one transaction together with the tenant.created
// outbox event.
func (s *service) CreateReseller(ctx context.Context, input CreateResellerInput) (*CreateResellerResult, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid slug").
			WithDetails(map[string]string{"slug": "must be lowercase letters, digits and hyphens"})
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Margin.IsNegative() || input.Margin.GreaterThanOrEqual(marginOne) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "margin must be in [0, 1)")
	}
	adminEmail := strings.ToLower(strings.TrimSpace(input.AdminEmail))
	if !strings.Contains(adminEmail, "@") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid admin email")
	}

	exists, err := s.users.ExistsByEmail(ctx, adminEmail)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin email")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "admin email already in use")
	}

	distributor, err := s.repo.FindDistributor(ctx)
	if err != nil {
		return nil, notFoundOrDependency(err)
	}

	tempPassword, err := security.GenerateTempPassword(16)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temp password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = s.platform.DefaultCurrency
	}
	language := strings.ToLower(strings.TrimSpace(input.Language))
	if language == "" {
		language = s.platform.DefaultLanguage
	}

	tenant := &models.Tenant{
		Slug:         slug,
		CustomDomain: normalizeDomain(input.CustomDomain),
		Name:         strings.TrimSpace(input.Name),
		Type:         enums.TenantTypeReseller,
		ParentID:     &distributor.ID,
		Margin:       input.Margin,
		IsActive:     true,
		LogoURL:      input.LogoURL,
		PrimaryColor: input.PrimaryColor,
		ContactEmail: input.ContactEmail,
		Currency:     currency,
		Language:     language,
	}

	var copied int
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, tenant); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "slug or custom domain already in use").
					WithDetails(map[string]string{"slug": slug})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tenant")
		}

		n, err := s.catalog.CopyCatalogTx(tx, distributor.ID, tenant.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "copy catalog")
		}
		copied = n

		admin := &models.User{
			Email:        adminEmail,
			PasswordHash: hash,
			Name:         strings.TrimSpace(input.AdminName),
			Role:         enums.UserRoleAdmin,
			TenantID:     tenant.ID,
		}
		if err := s.users.CreateTx(tx, admin); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin user")
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTenantCreated,
			AggregateType: enums.AggregateTenant,
			AggregateID:   tenant.ID,
			Version:       1,
			Data: payloads.TenantCreatedEvent{
				TenantID:    tenant.ID,
				ParentID:    tenant.ParentID,
				Slug:        tenant.Slug,
				Type:        tenant.Type,
				TiresCopied: n,
			},
		})
	})
	if err != nil {
		var typed *pkgerrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "onboard reseller")
	}

	return &CreateResellerResult{
		Tenant:       *toDTO(tenant),
		AdminEmail:   adminEmail,
		TempPassword: tempPassword,
		TiresCopied:  copied,
	}, nil
}

// Update applies the partial changes and evicts the tenant's cached host
// resolutions, so a deactivated storefront or a changed domain stops
// resolving immediately instead of after the cache TTL.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateTenantInput) (*TenantDTO, error) {
	tenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrDependency(err)
	}
	previousDomain := tenant.CustomDomain

	if input.Margin != nil {
		if input.Margin.IsNegative() || input.Margin.GreaterThanOrEqual(marginOne) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "margin must be in [0, 1)")
		}
		tenant.Margin = *input.Margin
	}
	if input.Name != nil {
		tenant.Name = strings.TrimSpace(*input.Name)
	}
	if input.CustomDomain != nil {
		tenant.CustomDomain = normalizeDomain(input.CustomDomain)
	}
	if input.LogoURL != nil {
		tenant.LogoURL = input.LogoURL
	}
	if input.PrimaryColor != nil {
		tenant.PrimaryColor = input.PrimaryColor
	}
	if input.SecondaryColor != nil {
		tenant.SecondaryColor = input.SecondaryColor
	}
	if input.ContactEmail != nil {
		tenant.ContactEmail = input.ContactEmail
	}
	if input.ContactPhone != nil {
		tenant.ContactPhone = input.ContactPhone
	}
	if input.IsActive != nil {
		tenant.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, tenant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tenant")
	}
	s.invalidateResolution(ctx, tenant, previousDomain)
	return toDTO(tenant), nil
}

// invalidateResolution drops every cached host that can map to the tenant:
// its subdomain, the root domain when it is the distributor, and both the
// old and new custom domains.
func (s *service) invalidateResolution(ctx context.Context, tenant *models.Tenant, previousDomain *string) {
	if s.cache == nil {
		return
	}

	root := strings.ToLower(strings.TrimSpace(s.platform.RootDomain))
	hosts := []string{tenant.Slug + "." + root}
	if tenant.Type == enums.TenantTypeDistributor {
		hosts = append(hosts, root, "www."+root)
	}
	if previousDomain != nil {
		hosts = append(hosts, *previousDomain)
	}
	if tenant.CustomDomain != nil {
		hosts = append(hosts, *tenant.CustomDomain)
	}

	keys := make([]string, 0, len(hosts))
	for _, host := range hosts {
		keys = append(keys, s.cache.ResolverCacheKey(host))
	}
	if err := s.cache.Del(ctx, keys...); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "resolver cache invalidation failed")
	}
}

func normalizeDomain(domain *string) *string {
	if domain == nil {
		return nil
	}
	d := strings.ToLower(strings.TrimSpace(*domain))
	if d == "" {
		return nil
	}
	return &d
}

func notFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "storefront not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tenant")
}

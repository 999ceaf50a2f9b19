// Package actionlink 行动链接的创建、使用统计与可用性校验
package actionlink

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"actionlink-platform/internal/identity"
	"actionlink-platform/internal/metrics"
	"actionlink-platform/internal/model"
	"actionlink-platform/internal/status"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LinkStore 行动链接存储
type LinkStore interface {
	ByID(ctx context.Context, id string) (*model.ActionLink, error)
	ByFilter(ctx context.Context, filter model.ActionLinkFilter, orderBy string, limit int) ([]*model.ActionLink, error)
	Create(ctx context.Context, link *model.ActionLink) error
	IncrementUsage(ctx context.Context, id string, actorID uint, now time.Time) (bool, error)
}

// UsageLogStore 使用记录存储，Create 在 (link, user) 已存在时返回 false
type UsageLogStore interface {
	Exists(ctx context.Context, linkID string, userID uint) (bool, error)
	Create(ctx context.Context, row *model.UsageLog) (bool, error)
	ListByLink(ctx context.Context, linkID string) ([]*model.UsageLog, error)
}

// UserResolver 按邮箱解析用户，不存在时返回 nil, nil
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// ShortLinkProvider 外部短链接服务
type ShortLinkProvider interface {
	CreateShortLink(ctx context.Context, targetType, action, title, longURL string) (string, error)
}

// Transactor 在一个事务中执行 fn
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CreateRequest 创建行动链接的参数
type CreateRequest struct {
	Name           string           `json:"name" binding:"required" validate:"required,max=255"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	EntityType     model.EntityType `json:"entity_type" binding:"required" validate:"required"`
	Action         model.Action     `json:"action" binding:"required" validate:"required"`
	EntityID       string           `json:"entity_id" binding:"required" validate:"required,max=64"`
	OrganizationID *string          `json:"organization_id,omitempty" validate:"omitempty,max=64"`
	URL            string           `json:"url" binding:"required" validate:"required,url"`
	UsagesLimit    *int             `json:"usages_limit,omitempty" validate:"omitempty,min=1"`
	DateEnd        *time.Time       `json:"date_end,omitempty"`
}

// Service 行动链接业务逻辑
type Service struct {
	links      LinkStore
	usages     UsageLogStore
	users      UserResolver
	shortLinks ShortLinkProvider
	tx         Transactor
	validate   *validator.Validate
	logger     *zap.SugaredLogger
	now        func() time.Time
}

// Option 配置 Service
type Option func(*Service)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	links LinkStore,
	usages UsageLogStore,
	users UserResolver,
	shortLinks ShortLinkProvider,
	tx Transactor,
	logger *zap.SugaredLogger,
	opts ...Option,
) *Service {
	s := &Service{
		links:      links,
		usages:     usages,
		users:      users,
		shortLinks: shortLinks,
		tx:         tx,
		validate:   validator.New(),
		logger:     logger.Named("action_link_service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get 按 ID 查询链接
func (s *Service) Get(ctx context.Context, id string) (*model.ActionLink, error) {
	return s.load(ctx, id)
}

// Usages 列出链接的使用记录
func (s *Service) Usages(ctx context.Context, id string) ([]*model.UsageLog, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.usages.ListByLink(ctx, id)
}

// AssertActive 链接不可用时返回带具体原因的校验错误
func (s *Service) AssertActive(ctx context.Context, id string) error {
	link, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return assertUsable(link)
}

// Create 创建行动链接。同一目标实体的分享链接只会有一条，重复创建返回已有链接。
func (s *Service) Create(ctx context.Context, req CreateRequest, requireAuth bool) (*model.ActionLink, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, newError(KindValidation, "INVALID_REQUEST", "invalid action link request", errors.Join(ErrInvalidRequest, err))
	}

	actor, err := s.resolveActor(ctx, requireAuth)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var dateEnd *time.Time
	if req.DateEnd != nil {
		end := req.DateEnd.UTC()
		dateEnd = &end
	}
	link := &model.ActionLink{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Description:      req.Description,
		EntityType:       req.EntityType,
		Action:           req.Action,
		EntityID:         req.EntityID,
		OrganizationID:   req.OrganizationID,
		Status:           status.Active,
		URL:              req.URL,
		UsagesLimit:      req.UsagesLimit,
		DateEnd:          dateEnd,
		CreatedByUserID:  actor.ID,
		ModifiedByUserID: actor.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	switch {
	case link.EntityType == model.EntityTypeOpportunity && link.Action == model.ActionShare:
		if req.UsagesLimit != nil || req.DateEnd != nil {
			return nil, newError(KindValidation, "INVALID_REQUEST", "share links cannot have a usage limit or end date", ErrInvalidRequest)
		}
		existing, err := s.findShareLink(ctx, link)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return reuseShareLink(existing, req.URL)
		}
		key := model.ShareKeyFor(link.EntityType, link.Action, link.EntityID)
		link.ShareKey = &key

	case link.EntityType == model.EntityTypeOpportunity && link.Action == model.ActionVerify:
		if req.DateEnd != nil && !req.DateEnd.After(now) {
			return nil, newError(KindValidation, "INVALID_REQUEST", "end date must be in the future", ErrInvalidRequest)
		}
		target, err := url.JoinPath(req.URL, link.ID)
		if err != nil {
			return nil, newError(KindValidation, "INVALID_REQUEST", "invalid verify base url", errors.Join(ErrInvalidRequest, err))
		}
		link.URL = target

	default:
		return nil, newError(KindInvalidOperation, "UNSUPPORTED_LINK",
			fmt.Sprintf("entity type %q with action %q is not supported", link.EntityType, link.Action), ErrUnsupportedLink)
	}

	shortURL, err := s.shortLinks.CreateShortLink(ctx, string(link.EntityType), string(link.Action), link.Name, link.URL)
	if err != nil {
		return nil, fmt.Errorf("生成短链接失败: %w", err)
	}
	link.ShortURL = shortURL

	if err := s.links.Create(ctx, link); err != nil {
		if link.ShareKey != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发创建时另一个请求先写入了分享链接
			existing, ferr := s.findShareLink(ctx, link)
			if ferr != nil {
				return nil, ferr
			}
			if existing != nil {
				return reuseShareLink(existing, req.URL)
			}
		}
		return nil, err
	}

	metrics.LinksCreated.WithLabelValues(string(link.Action)).Inc()
	s.logger.Infow("行动链接已创建",
		"link_id", link.ID, "entity_type", link.EntityType, "action", link.Action,
		"entity_id", link.EntityID, "actor_id", actor.ID)
	return link, nil
}

// LogUsage 记录已登录用户对链接的一次使用，每个用户只计一次。
// 匿名调用只校验链接可用，不记录也不计数。
func (s *Service) LogUsage(ctx context.Context, id string) (*model.ActionLink, error) {
	link, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := assertUsable(link); err != nil {
		return nil, err
	}

	email, ok := identity.EmailFromContext(ctx)
	if !ok {
		return link, nil
	}
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// 快速路径，真正防重的是 (link_id, user_id) 唯一索引
	used, err := s.usages.Exists(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	if used {
		return link, nil
	}

	errNotUsable := errors.New("link no longer usable")
	now := s.now()
	counted := false
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		inserted, err := s.usages.Create(ctx, &model.UsageLog{LinkID: id, UserID: user.ID, CreatedAt: now})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		incremented, err := s.links.IncrementUsage(ctx, id, user.ID, now)
		if err != nil {
			return err
		}
		if !incremented {
			return errNotUsable
		}
		counted = true
		return nil
	})
	if err != nil && !errors.Is(err, errNotUsable) {
		return nil, err
	}

	current, lerr := s.load(ctx, id)
	if lerr != nil {
		return nil, lerr
	}
	if errors.Is(err, errNotUsable) {
		// 检查通过后链接被并发地用满或置为不可用
		if verr := assertUsable(current); verr != nil {
			return nil, verr
		}
		return nil, limitReachedError()
	}

	if counted {
		metrics.UsagesLogged.Inc()
		s.logger.Infow("已记录链接使用",
			"link_id", id, "user_id", user.ID, "usages_total", current.UsagesTotal, "status", current.Status.String())
	}
	return current, nil
}

func (s *Service) load(ctx context.Context, id string) (*model.ActionLink, error) {
	link, err := s.links.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, newError(KindNotFound, "LINK_NOT_FOUND", fmt.Sprintf("action link %s not found", id), ErrLinkNotFound)
	}
	return link, nil
}

func (s *Service) resolveActor(ctx context.Context, requireAuth bool) (*model.User, error) {
	email, ok := identity.EmailFromContext(ctx)
	if !ok {
		if requireAuth {
			return nil, newError(KindUnauthenticated, "UNAUTHENTICATED", "authentication required", ErrUnauthenticated)
		}
		email = identity.SystemEmail
	}
	return s.userByEmail(ctx, email)
}

func (s *Service) userByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(KindNotFound, "USER_NOT_FOUND", fmt.Sprintf("user %s not found", email), ErrUserNotFound)
	}
	return user, nil
}

func (s *Service) findShareLink(ctx context.Context, link *model.ActionLink) (*model.ActionLink, error) {
	rows, err := s.links.ByFilter(ctx, model.ActionLinkFilter{
		EntityType: &link.EntityType,
		Action:     &link.Action,
		EntityID:   &link.EntityID,
	}, "created_at ASC", 1)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func reuseShareLink(existing *model.ActionLink, requestedURL string) (*model.ActionLink, error) {
	if existing.URL != requestedURL {
		return nil, newError(KindDataInconsistency, "SHARE_URL_MISMATCH",
			fmt.Sprintf("share link %s stores url %q but %q was requested", existing.ID, existing.URL, requestedURL),
			ErrShareURLMismatch)
	}
	if err := assertUsable(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func assertUsable(link *model.ActionLink) error {
	switch link.Status {
	case status.Active:
		return nil
	case status.Inactive:
		return newError(KindValidation, "LINK_INACTIVE", "action link is inactive", ErrLinkInactive)
	case status.Expired:
		return newError(KindValidation, "LINK_EXPIRED", "action link has expired", ErrLinkExpired)
	case status.LimitReached:
		return limitReachedError()
	default:
		return fmt.Errorf("action link %s has unexpected status %s", link.ID, link.Status)
	}
}

func limitReachedError() error {
	return newError(KindValidation, "LINK_LIMIT_REACHED", "action link usage limit reached", ErrLinkLimitReached)
}

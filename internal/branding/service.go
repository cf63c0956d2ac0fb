package branding

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrCompanyNotFound = errors.New("company not found")

func cacheKey(companyID string) string {
	return "branding:" + companyID
}

// Service reads themes from the companies table through an optional Redis
// cache. A nil client disables caching.
type Service struct {
	db  *gorm.DB
	rdb *redis.Client
	ttl time.Duration
}

func NewService(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *Service {
	return &Service{db: db, rdb: rdb, ttl: ttl}
}

func (s *Service) Load(ctx context.Context, companyID string) (Theme, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, cacheKey(companyID)).Result()
		switch {
		case err == nil:
			var t Theme
			if jerr := json.Unmarshal([]byte(raw), &t); jerr == nil {
				return t, nil
			}
		case !errors.Is(err, redis.Nil):
			log.Printf("[branding] cache read failed: %v", err)
		}
	}

	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Theme{}, ErrCompanyNotFound
		}
		return Theme{}, err
	}
	t := NewTheme(company.ID, company.PrimaryColor, company.AccentColor)

	if s.rdb != nil {
		if b, err := json.Marshal(t); err == nil {
			if err := s.rdb.Set(ctx, cacheKey(companyID), b, s.ttl).Err(); err != nil {
				log.Printf("[branding] cache write failed: %v", err)
			}
		}
	}
	return t, nil
}

// Invalidate drops the cached theme of a company.
func (s *Service) Invalidate(ctx context.Context, companyID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKey(companyID)).Err(); err != nil {
		log.Printf("[branding] cache invalidation failed: %v", err)
	}
}

// Reload bypasses the cache and stores a fresh theme.
func (s *Service) Reload(ctx context.Context, companyID string) (Theme, error) {
	s.Invalidate(ctx, companyID)
	return s.Load(ctx, companyID)
}

// Update changes one or both colors. nil leaves a color as it is.
func (s *Service) Update(ctx context.Context, companyID string, primary, accent *string) (before, after Theme, err error) {
	before, err = s.Load(ctx, companyID)
	if err != nil {
		return
	}

	updates := map[string]interface{}{}
	if primary != nil {
		p, perr := NormalizeHex(*primary)
		if perr != nil {
			err = perr
			return
		}
		updates["primary_color"] = p
	}
	if accent != nil {
		a, aerr := NormalizeHex(*accent)
		if aerr != nil {
			err = aerr
			return
		}
		updates["accent_color"] = a
	}
	if len(updates) > 0 {
		if err = s.db.WithContext(ctx).Model(&models.Company{}).Where("id = ?", companyID).Updates(updates).Error; err != nil {
			return
		}
	}

	after, err = s.Reload(ctx, companyID)
	return
}

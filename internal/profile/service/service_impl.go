package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/flowdesk/internal/clock"
	"github.com/smallbiznis/flowdesk/internal/config"
	"github.com/smallbiznis/flowdesk/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	assetsDir string
	repo      domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("profile.service"),
		clock:     p.Clock,
		assetsDir: filepath.Join(p.Config.DataDir, "assets"),
		repo:      p.Repo,
	}
}

func (s *Service) Get(ctx context.Context) (domain.BusinessProfile, error) {
	profile, err := s.repo.FindFirst(ctx, s.db)
	if err != nil {
		return domain.BusinessProfile{}, err
	}
	if profile == nil {
		return domain.BusinessProfile{}, domain.ErrNotFound
	}
	return *profile, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveProfileRequest) (domain.BusinessProfile, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.BusinessProfile{}, domain.ErrInvalidName
	}
	email := optional(req.Email)
	if email != nil && !strings.Contains(*email, "@") {
		return domain.BusinessProfile{}, domain.ErrInvalidEmail
	}
	currency := strings.ToUpper(strings.TrimSpace(req.DefaultCurrency))
	if len(currency) < 3 || len(currency) > 8 {
		return domain.BusinessProfile{}, domain.ErrInvalidCurrency
	}
	if req.DefaultPaymentTermsDays < 0 {
		return domain.BusinessProfile{}, domain.ErrInvalidTerms
	}

	profile, err := s.Get(ctx)
	if err != nil {
		return domain.BusinessProfile{}, err
	}

	profile.Name = name
	profile.Email = email
	profile.Phone = optional(req.Phone)
	profile.Address = strings.TrimSpace(req.Address)
	profile.TaxID = optional(req.TaxID)
	profile.DefaultCurrency = currency
	profile.DefaultPaymentTermsDays = req.DefaultPaymentTermsDays
	profile.PDFExportDir = optional(req.PDFExportDir)
	profile.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &profile); err != nil {
		return domain.BusinessProfile{}, err
	}
	s.log.Info("profile.saved", zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

func (s *Service) GetBankDetails(ctx context.Context) (domain.BankDetails, error) {
	profile, err := s.Get(ctx)
	if err != nil {
		return domain.BankDetails{}, err
	}
	return profile.BankDetails.Data(), nil
}

func (s *Service) SaveBankDetails(ctx context.Context, details domain.BankDetails) (domain.BankDetails, error) {
	profile, err := s.Get(ctx)
	if err != nil {
		return domain.BankDetails{}, err
	}

	details = domain.BankDetails{
		AccountName:   strings.TrimSpace(details.AccountName),
		AccountNumber: strings.TrimSpace(details.AccountNumber),
		BankName:      strings.TrimSpace(details.BankName),
		IBAN:          strings.ToUpper(strings.ReplaceAll(details.IBAN, " ", "")),
		SWIFT:         strings.ToUpper(strings.TrimSpace(details.SWIFT)),
		RoutingNumber: strings.TrimSpace(details.RoutingNumber),
	}
	profile.BankDetails = datatypes.NewJSONType(details)
	profile.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, &profile); err != nil {
		return domain.BankDetails{}, err
	}
	return details, nil
}

// SaveAsset stores an uploaded image under the data dir and records its path
// on the profile.
func (s *Service) SaveAsset(ctx context.Context, kind domain.AssetKind, data []byte) (string, error) {
	path, err := s.assetPath(kind)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", domain.ErrInvalidAsset
	}

	profile, err := s.Get(ctx)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.assetsDir, 0o755); err != nil {
		return "", fmt.Errorf("create assets dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", kind, err)
	}

	s.setAssetPath(&profile, kind, &path)
	profile.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, &profile); err != nil {
		return "", err
	}
	return path, nil
}

func (s *Service) ReadAsset(ctx context.Context, kind domain.AssetKind) ([]byte, error) {
	path, err := s.assetPath(kind)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrAssetNotFound
	}
	return data, err
}

func (s *Service) DeleteAsset(ctx context.Context, kind domain.AssetKind) error {
	path, err := s.assetPath(kind)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	profile, err := s.Get(ctx)
	if err != nil {
		return err
	}
	s.setAssetPath(&profile, kind, nil)
	profile.UpdatedAt = s.clock.Now()
	return s.repo.Update(ctx, s.db, &profile)
}

func (s *Service) assetPath(kind domain.AssetKind) (string, error) {
	switch kind {
	case domain.AssetLogo, domain.AssetQR:
		return filepath.Join(s.assetsDir, string(kind)+".png"), nil
	default:
		return "", domain.ErrInvalidAsset
	}
}

func (s *Service) setAssetPath(profile *domain.BusinessProfile, kind domain.AssetKind, path *string) {
	if kind == domain.AssetLogo {
		profile.LogoPath = path
	} else {
		profile.QRPath = path
	}
}

func optional(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil
	}
	return &v
}

package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"socialpost/app/models"
	"socialpost/app/repositories"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CreditsPerGeneration is charged once per successful generation.
const CreditsPerGeneration = 1

// GeneratedContent is what a Generator returns for one request.
type GeneratedContent struct {
	Caption string
	Image   string
}

// Generator produces post content for a product.
type Generator interface {
	Generate(ctx context.Context, product *models.Product, prompt string, platforms []models.Platform) (GeneratedContent, error)
}

// TemplateGenerator fills a fixed caption template with the product title.
// Delay simulates generation latency and honours context cancellation.
type TemplateGenerator struct {
	Delay time.Duration
	Image string
}

const defaultGeneratedImage = "https://via.placeholder.com/400x400?text=AI+Generated+Social+Post"

func (g TemplateGenerator) Generate(ctx context.Context, product *models.Product, prompt string, platforms []models.Platform) (GeneratedContent, error) {
	if g.Delay > 0 {
		timer := time.NewTimer(g.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return GeneratedContent{}, ctx.Err()
		case <-timer.C:
		}
	}
	image := g.Image
	if image == "" {
		image = defaultGeneratedImage
	}
	caption := fmt.Sprintf("🎉 Introducing our amazing %s! ✨\n\n"+
		"This incredible product is designed to enhance your daily life with premium quality and innovative features. "+
		"Perfect for anyone who values excellence and style.\n\n"+
		"🔥 Limited time offer available!\n💡 Perfect gift idea\n🚀 Free shipping on orders over $50\n\n"+
		"#PremiumQuality #Innovation #Lifestyle #ShopNow #LimitedOffer", product.Title)
	return GeneratedContent{Caption: caption, Image: image}, nil
}

// GenerationService turns generation requests into draft posts and charges
// credits for them.
type GenerationService struct {
	products  repositories.ProductRepository
	postRepo  repositories.PostRepository
	ledger    *CreditLedger
	generator Generator
	log       logrus.FieldLogger
	now       func() time.Time

	inflight singleflight.Group
	mutex    sync.Mutex
	results  map[string]*models.GenerationResult
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(products repositories.ProductRepository, postRepo repositories.PostRepository, ledger *CreditLedger, generator Generator, log logrus.FieldLogger) *GenerationService {
	if generator == nil {
		generator = TemplateGenerator{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &GenerationService{
		products:  products,
		postRepo:  postRepo,
		ledger:    ledger,
		generator: generator,
		log:       log.WithField("service", "generation"),
		now:       time.Now,
		results:   make(map[string]*models.GenerationResult),
	}
}

// SetClock replaces the time source; used by tests.
func (s *GenerationService) SetClock(now func() time.Time) {
	s.now = now
}

// Generate validates the request, generates content, stores one draft post
// per platform and charges one credit. Repeating a request id returns the
// original result without charging again. A request without an id is keyed
// by GenerationKey, so an identical retry is charged once.
func (s *GenerationService) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	platforms, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	req.Platforms = platforms
	if req.RequestID == "" {
		req.RequestID = GenerationKey(req.ProductID, req.Prompt, platforms)
	}

	v, err, _ := s.inflight.Do(req.RequestID, func() (interface{}, error) {
		if res, ok := s.cached(req.RequestID); ok {
			return res, nil
		}
		return s.generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.GenerationResult), nil
}

func (s *GenerationService) validate(req models.GenerationRequest) ([]models.Platform, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, invalid("productId", "select a product first")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalid("prompt", "enter a prompt for generation")
	}
	if len(req.Platforms) == 0 {
		return nil, invalid("platforms", "select at least one platform")
	}
	seen := make(map[models.Platform]bool, len(req.Platforms))
	platforms := make([]models.Platform, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		p = models.Platform(strings.ToLower(strings.TrimSpace(string(p))))
		if !p.Valid() {
			return nil, invalid("platforms", "unknown platform %q", p)
		}
		if !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}
	if _, err := s.products.GetByID(req.ProductID); err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return nil, invalid("productId", "unknown product %q", req.ProductID)
		}
		return nil, errors.Wrap(err, "lookup product")
	}
	return platforms, nil
}

func (s *GenerationService) generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	log := s.log.WithFields(logrus.Fields{"request_id": req.RequestID, "product_id": req.ProductID})

	if err := s.ledger.Check(CreditsPerGeneration); err != nil {
		log.Warn("generation refused: insufficient credits")
		return nil, err
	}
	product, err := s.products.GetByID(req.ProductID)
	if err != nil {
		return nil, errors.Wrap(err, "lookup product")
	}

	content, err := s.generator.Generate(ctx, product, req.Prompt, req.Platforms)
	if err != nil {
		log.WithError(err).Error("generation failed")
		return nil, &GenerationFailure{RequestID: req.RequestID, ProductID: req.ProductID, Err: err}
	}

	generatedAt := s.now().UTC()
	result := &models.GenerationResult{
		ID:          uuid.NewString(),
		Image:       content.Image,
		Caption:     content.Caption,
		Platforms:   req.Platforms,
		ProductID:   req.ProductID,
		Prompt:      req.Prompt,
		GeneratedAt: generatedAt,
	}

	for _, platform := range req.Platforms {
		post := &models.Post{
			Title:     product.Title,
			Caption:   content.Caption,
			Image:     content.Image,
			Platform:  platform,
			Status:    models.StatusDraft,
			ProductID: product.ID,
			Prompt:    req.Prompt,
		}
		post.BeforeCreate(generatedAt)
		if err := s.postRepo.Create(post); err != nil {
			s.rollback(result.PostIDs, log)
			return nil, errors.Wrap(err, "store generated post")
		}
		result.PostIDs = append(result.PostIDs, post.ID)
	}

	if _, err := s.ledger.Deduct(req.RequestID, CreditsPerGeneration); err != nil {
		s.rollback(result.PostIDs, log)
		return nil, err
	}

	s.mutex.Lock()
	s.results[req.RequestID] = result
	s.mutex.Unlock()

	log.WithFields(logrus.Fields{
		"post_ids": result.PostIDs,
		"credits":  s.ledger.Balance(),
	}).Info("content generated")
	return result, nil
}

func (s *GenerationService) cached(requestID string) (*models.GenerationResult, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	res, ok := s.results[requestID]
	return res, ok
}

// rollback removes posts created for a generation that could not be charged.
func (s *GenerationService) rollback(postIDs []int, log logrus.FieldLogger) {
	for _, id := range postIDs {
		if err := s.postRepo.Delete(id); err != nil && !stderrors.Is(err, repositories.ErrNotFound) {
			log.WithError(err).WithField("post_id", id).Error("rollback of generated post failed")
		}
	}
}

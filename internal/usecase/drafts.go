package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"TopicScanner/internal/domain"
	"TopicScanner/internal/ports"
)

// DraftService generates post drafts and stores them on the topic.
type DraftService struct {
	store  ports.TopicStore
	writer ports.DraftWriter
	logger *slog.Logger
}

// NewDraftService accepts a nil writer; Generate then fails with ErrGenerationFailed.
func NewDraftService(store ports.TopicStore, writer ports.DraftWriter, logger *slog.Logger) *DraftService {
	return &DraftService{store: store, writer: writer, logger: logger}
}

// Generate writes a draft for the topic and moves it to drafted. Nothing is
// persisted when generation fails.
func (s *DraftService) Generate(ctx context.Context, id string) (domain.Topic, error) {
	topic, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domain.Topic{}, err
	}

	if s.writer == nil {
		draftsTotal.WithLabelValues("unconfigured").Inc()
		return domain.Topic{}, fmt.Errorf("%w: no draft writer configured", domain.ErrGenerationFailed)
	}

	text, err := s.writer.WriteDraft(ctx, topic)
	if err != nil {
		draftsTotal.WithLabelValues("failed").Inc()
		if s.logger != nil {
			s.logger.Warn("draft generation failed", "topic", id, "error", err)
		}
		return domain.Topic{}, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		draftsTotal.WithLabelValues("empty").Inc()
		return domain.Topic{}, fmt.Errorf("%w: empty draft for %s", domain.ErrGenerationFailed, id)
	}

	if err := s.store.SetDraft(ctx, id, text); err != nil {
		return domain.Topic{}, fmt.Errorf("store draft: %w", err)
	}
	draftsTotal.WithLabelValues("ok").Inc()

	topic.Draft = text
	topic.Status = domain.StatusDrafted
	return topic, nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/lyrics"
	"rap-order-service/internal/model"
	"rap-order-service/internal/notify"
	"rap-order-service/internal/repository"
	"rap-order-service/internal/worker"
)

const (
	fastDeliveryLabel  = "90 seconds"
	fastDeliveryWindow = 90 * time.Second
	slowDeliveryWindow = 120 * time.Second

	failureBookkeepingTimeout = 5 * time.Second
)

type OrderService struct {
	repo     repository.OrderRepository
	queue    worker.Enqueuer
	catalog  *lyrics.Catalog
	audio    SongGenerator
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func(now time.Time) string
}

func NewOrderService(
	repo repository.OrderRepository,
	queue worker.Enqueuer,
	catalog *lyrics.Catalog,
	audio SongGenerator,
	notifier notify.Notifier,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		repo:     repo,
		queue:    queue,
		catalog:  catalog,
		audio:    audio,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		newID:    newOrderID,
	}
}

// CreateOrder renders the lyrics, stores the order and queues its delivery.
// It returns as soon as the order is queued.
func (s *OrderService) CreateOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	if strings.TrimSpace(req.Template) == "" || req.TemplateData == nil || req.FormData == nil {
		return model.Order{}, apperr.Validation("Missing required fields")
	}

	tpl, ok := s.catalog.Template(req.Template)
	if !ok {
		return model.Order{}, fmt.Errorf("%w %q", lyrics.ErrUnknownTemplate, req.Template)
	}

	text, err := s.catalog.Render(tpl.Key, req.FormData)
	if err != nil {
		return model.Order{}, fmt.Errorf("render lyrics template=%s: %w", tpl.Key, err)
	}

	deliveryTime := strings.TrimSpace(req.TemplateData.DeliveryTime)
	if deliveryTime == "" {
		deliveryTime = tpl.DeliveryTime
	}
	price := req.TemplateData.Price
	if price <= 0 {
		price = tpl.Price
	}

	now := s.now().UTC()
	order := model.Order{
		ID:           s.newID(now),
		Template:     tpl.Key,
		Price:        price,
		DeliveryTime: deliveryTime,
		Customer: model.Customer{
			Name:  strings.TrimSpace(req.FormData["customerName"]),
			Email: strings.TrimSpace(req.FormData["email"]),
		},
		Lyrics:          text,
		Status:          model.StatusCreated,
		ClientTimestamp: req.Timestamp,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return model.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := s.queue.Enqueue(ctx, order.ID); err != nil {
		return model.Order{}, fmt.Errorf("enqueue order id=%s: %w", order.ID, err)
	}

	s.logger.Info("order_created",
		zap.String("order_id", order.ID),
		zap.String("template", order.Template),
		zap.Float64("price", order.Price),
		zap.String("delivery_time", order.DeliveryTime),
	)
	return order, nil
}

// Acknowledge builds the immediate response for a queued order.
func (s *OrderService) Acknowledge(order model.Order) model.Acknowledgment {
	return model.Acknowledgment{
		Success:           true,
		OrderID:           order.ID,
		Message:           fmt.Sprintf("Song creation started! Will be delivered in %s", order.DeliveryTime),
		EstimatedDelivery: EstimatedDelivery(order.DeliveryTime, s.now().UTC()),
	}
}

// EstimatedDelivery is 90 seconds out for the "90 seconds" tier and two
// minutes out for anything else.
func EstimatedDelivery(label string, from time.Time) time.Time {
	if label == fastDeliveryLabel {
		return from.Add(fastDeliveryWindow)
	}
	return from.Add(slowDeliveryWindow)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (model.Order, error) {
	if strings.TrimSpace(id) == "" {
		return model.Order{}, apperr.Validation("id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("get order id=%s: %w", id, err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, limit, offset int) ([]model.Order, int, error) {
	if limit <= 0 || limit > 100 {
		return nil, 0, apperr.Validation("limit must be 1..100")
	}
	if offset < 0 {
		return nil, 0, apperr.Validation("offset must be >= 0")
	}

	orders, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return orders, total, nil
}

// ProcessOrder is the delivery pipeline for one order: generate audio (soft
// failure), send the song, record the outcome. Any hard error sends the
// failure notice, marks the order failed and is returned. There is no retry.
func (s *OrderService) ProcessOrder(ctx context.Context, orderID string) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order before processing id=%s: %w", orderID, err)
	}

	if order.Status != model.StatusCreated {
		return nil
	}

	start := s.now()
	log := s.logger.With(zap.String("order_id", order.ID))
	log.Info("order_delivery_started", zap.String("template", order.Template))

	if err := s.repo.UpdateStatus(ctx, order.ID, model.StatusProcessing); err != nil {
		return s.fail(ctx, order, fmt.Errorf("set processing id=%s: %w", order.ID, err))
	}

	style := order.Template
	if tpl, ok := s.catalog.Template(order.Template); ok && tpl.Style != "" {
		style = tpl.Style
	}

	audio := s.audio.Generate(ctx, order.Lyrics, style)
	if !audio.Success {
		log.Warn("order_audio_fallback", zap.String("audio_url", audio.URL), zap.String("reason", audio.Err))
	}

	if err := s.repo.SetAudioURL(ctx, order.ID, audio.URL); err != nil {
		return s.fail(ctx, order, fmt.Errorf("set audio url id=%s: %w", order.ID, err))
	}

	delivery := notify.Delivery{
		OrderID:      order.ID,
		Template:     order.Template,
		CustomerName: order.Customer.Name,
		Email:        order.Customer.Email,
		SongURL:      audio.URL,
		Lyrics:       order.Lyrics,
		DeliveryTime: order.DeliveryTime,
	}
	if err := s.notifier.SendSong(ctx, delivery); err != nil {
		return s.fail(ctx, order, fmt.Errorf("send song id=%s: %w", order.ID, err))
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, model.StatusDelivered); err != nil {
		return s.fail(ctx, order, fmt.Errorf("set delivered id=%s: %w", order.ID, err))
	}

	log.Info("order_delivered",
		zap.Bool("audio_generated", audio.Success),
		zap.Int64("duration_ms", s.now().Sub(start).Milliseconds()),
	)
	return nil
}

// fail runs even when ctx is already canceled so the failure is recorded.
func (s *OrderService) fail(ctx context.Context, order model.Order, cause error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureBookkeepingTimeout)
	defer cancel()

	log := s.logger.With(zap.String("order_id", order.ID))

	if err := s.notifier.SendFailure(ctx, notify.Failure{
		OrderID: order.ID,
		Email:   order.Customer.Email,
		Reason:  cause.Error(),
	}); err != nil {
		log.Error("order_failure_notice_failed", zap.Error(err))
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, model.StatusFailed); err != nil {
		log.Error("order_mark_failed_failed", zap.Error(err))
	}

	return cause
}

// newOrderID returns "instant_<unix ms>_<9 random base-16 chars>".
func newOrderID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("instant_%d_%s", now.UnixMilli(), suffix)
}

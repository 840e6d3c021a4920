package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"buildhooks/internal/artifacts"
	"buildhooks/internal/build"
	"buildhooks/internal/config"
	"buildhooks/internal/delivery"
	"buildhooks/internal/logging"
	"buildhooks/internal/metrics"
	"buildhooks/internal/payload"
)

// Reasons a notification delivered nothing.
const (
	SkippedNoSubscribers = "no subscribers"
	SkippedInternalError = "internal error"
)

// Subscribers yields the webhook URLs registered for a project.
type Subscribers interface {
	URLsFor(projectID string) []string
}

// Deliverer posts a payload to a list of destinations.
type Deliverer interface {
	Deliver(ctx context.Context, doc payload.Payload, destinations []string, deliveryID string) []delivery.Outcome
}

// Report summarizes one Notify call.
type Report struct {
	DeliveryID string             `json:"deliveryId"`
	ProjectID  string             `json:"projectId"`
	Build      string             `json:"build"`
	Outcomes   []delivery.Outcome `json:"outcomes"`
	Skipped    string             `json:"skipped,omitempty"`
	ElapsedMS  int64              `json:"elapsedMs"`
	Elapsed    time.Duration      `json:"-"`
}

// Delivered counts destinations that accepted the payload.
func (r Report) Delivered() int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.Status == delivery.StatusDelivered {
			count++
		}
	}
	return count
}

// Service wires the pipeline collaborators together.
type Service struct {
	subscribers Subscribers
	resolver    *artifacts.Resolver
	deliverer   Deliverer
	host        build.Host
	logger      *slog.Logger
	newID       func() string
	rootURL     string
}

// NewService builds a service. A nil host falls back to build.DirectoryHost
// and a nil resolver to one without object storage.
func NewService(subscribers Subscribers, resolver *artifacts.Resolver, deliverer Deliverer, host build.Host, logger *slog.Logger) *Service {
	if host == nil {
		host = build.DirectoryHost{}
	}
	if resolver == nil {
		resolver = artifacts.NewResolver(nil, logger)
	}
	return &Service{
		subscribers: subscribers,
		resolver:    resolver,
		deliverer:   deliverer,
		host:        host,
		logger:      logging.NewComponentLogger(logger, "notifications"),
		newID:       uuid.NewString,
	}
}

// NewFromConfig wires the default collaborators: artifacts directory host,
// s3.json-backed remote listing and an HTTP dispatcher using the configured
// timeout and user agent. Facts arriving without a root URL get the
// configured one.
func NewFromConfig(cfg *config.Config, subscribers Subscribers, logger *slog.Logger) *Service {
	resolver := artifacts.NewResolver(artifacts.NewSettingsLister(cfg.Paths.S3SettingsFile), logger)
	dispatcher := delivery.New(
		delivery.WithTimeout(cfg.RequestTimeout()),
		delivery.WithUserAgent(cfg.Delivery.UserAgent),
	)
	svc := NewService(subscribers, resolver, dispatcher, build.DirectoryHost{}, logger)
	svc.rootURL = cfg.Server.RootURL
	return svc
}

// Notify runs the pipeline for one finished build. It never panics and never
// returns an error; the Report says what happened.
func (s *Service) Notify(ctx context.Context, facts build.Facts) (report Report) {
	start := time.Now()
	if facts.RootURL == "" {
		facts.RootURL = s.rootURL
	}
	report = Report{
		DeliveryID: s.newID(),
		ProjectID:  facts.ProjectID,
		Build:      facts.Label(),
		Outcomes:   []delivery.Outcome{},
	}
	ctx = logging.WithCorrelationID(ctx, report.DeliveryID)
	logger := logging.WithContext(ctx, s.logger).With(
		logging.String(logging.FieldProjectID, facts.ProjectID),
		logging.String(logging.FieldBuildName, facts.FullName),
		logging.String(logging.FieldBuildNumber, facts.BuildNumber),
	)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, fmt.Sprintf("failed to handle build finished for %s", facts.Label()), "notification_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
				logging.String(logging.FieldErrorHint, "report this build's details; other builds are unaffected"))
			report.Skipped = SkippedInternalError
		}
		report.Elapsed = time.Since(start)
		report.ElapsedMS = report.Elapsed.Milliseconds()
		metrics.ObserveNotification(report.Elapsed)
		logger.Info("operation finished",
			logging.Elapsed(report.Elapsed),
			logging.Int("delivered", report.Delivered()),
			logging.Int("destinations", len(report.Outcomes)))
	}()

	scm, err := s.host.SCMPointer(ctx, facts)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to read scm pointer", "scm_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "payload is sent without source details"))
		scm = nil
	}
	if scm != nil {
		facts.SCM = scm
	}

	local, err := s.host.ArtifactListing(ctx, facts)
	if err != nil {
		logging.ErrorWithContext(logger, "failed to list local artifacts", "artifact_listing_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the build's artifacts directory permissions"))
		local = nil
	}

	locations := s.resolver.Resolve(ctx, facts, local)
	doc := payload.Build(facts, locations)
	s.logPayload(logger, doc, facts.SCM, locations)

	destinations := s.subscribers.URLsFor(facts.ProjectID)
	if len(destinations) == 0 {
		logger.Debug("no webhook subscribers for project")
		report.Skipped = SkippedNoSubscribers
		return report
	}

	report.Outcomes = s.deliverer.Deliver(ctx, doc, destinations, report.DeliveryID)
	for _, outcome := range report.Outcomes {
		attrs := []logging.Attr{
			logging.Destination(outcome.URL),
			logging.String("status", string(outcome.Status)),
			logging.Elapsed(outcome.Elapsed),
		}
		switch outcome.Status {
		case delivery.StatusDelivered:
			logger.LogAttrs(ctx, slog.LevelInfo, "payload POST-ed", append(attrs, logging.Int("status_code", outcome.StatusCode))...)
		case delivery.StatusRejected:
			logging.ErrorWithContext(logger, "webhook rejected payload", "delivery_rejected",
				append(attrs,
					logging.Int("status_code", outcome.StatusCode),
					logging.String("detail", outcome.Detail),
					logging.String(logging.FieldErrorHint, "check the receiving endpoint accepts card JSON"))...)
		default:
			logging.ErrorWithContext(logger, "webhook delivery failed", "delivery_failed",
				append(attrs,
					logging.Error(outcome.Err),
					logging.String(logging.FieldErrorHint, "check the webhook url is reachable"))...)
		}
	}
	return report
}

func (s *Service) logPayload(logger *slog.Logger, doc payload.Payload, scm *build.SCM, locations artifacts.Locations) {
	data, err := json.Marshal(doc)
	if err != nil {
		logger.Warn("failed to encode payload for logging", logging.Error(err))
		return
	}
	attrs := []logging.Attr{
		logging.String("payload", string(data)),
		logging.Int("artifact_count", len(locations)),
	}
	if scm != nil {
		attrs = append(attrs,
			logging.String("scm_url", scm.URL),
			logging.String("scm_branch", scm.Branch),
			logging.String("scm_revision", scm.Revision))
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "payload built", attrs...)
}

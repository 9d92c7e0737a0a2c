package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"parsera-notifier/internal/channel"
	"parsera-notifier/internal/dispatch"
	"parsera-notifier/internal/event"
	"parsera-notifier/internal/policy"
)

// Senders is the set of configured channels, keyed by kind. A channel without
// credentials is absent.
type Senders map[channel.Kind]channel.Sender

type Result struct {
	Command  event.Command               `json:"command"`
	Observed event.NotificationLevel     `json:"observed,omitempty"`
	Skipped  string                      `json:"skipped,omitempty"`
	Decision policy.Decision             `json:"decision"`
	Message  string                      `json:"message,omitempty"`
	Outcome  *dispatch.AggregatedOutcome `json:"outcome,omitempty"`
}

type Service struct {
	evaluator  *policy.Evaluator
	store      policy.FiredStore
	dispatcher *dispatch.Dispatcher
	senders    Senders
	logger     *zap.SugaredLogger

	now func() time.Time
}

type NewServiceParams struct {
	fx.In

	Evaluator  *policy.Evaluator
	Store      policy.FiredStore
	Dispatcher *dispatch.Dispatcher
	Senders    Senders
	Logger     *zap.SugaredLogger
}

func NewService(p NewServiceParams) *Service {
	return &Service{
		evaluator:  p.Evaluator,
		store:      p.Store,
		dispatcher: p.Dispatcher,
		senders:    p.Senders,
		logger:     p.Logger,
		now:        time.Now,
	}
}

// Process decides and delivers one parsed envelope. Delivery failures are in
// the returned outcome; the error is reserved for last-fired store faults.
func (s *Service) Process(ctx context.Context, ev event.EventProtocol) (Result, error) {
	res := Result{Command: ev.Command}

	observed, ok := Observe(ev)
	if !ok {
		res.Skipped = SkipNotNotifiable
		res.Decision = policy.Decision{Kind: policy.Suppress, Reason: SkipNotNotifiable}
		s.logger.Debugw("notify_skipped", "command", ev.Command, "status", ev.Status, "reason", res.Skipped)
		return res, nil
	}
	res.Observed = observed

	opts, ok := ev.Notification()
	if !ok {
		res.Skipped = SkipNoOptions
		res.Decision = policy.Decision{Kind: policy.Suppress, Reason: SkipNoOptions}
		s.logger.Debugw("notify_skipped", "command", ev.Command, "reason", res.Skipped)
		return res, nil
	}

	now := s.now().UTC()
	decision := s.evaluator.Decide(*opts, observed, now, nil)
	if decision.Kind == policy.Suppress || opts.Every == nil {
		res.Decision = decision
		return s.deliver(ctx, ev, *opts, res)
	}

	key := policy.Key(*opts)
	last, err := s.store.Get(ctx, key)
	if err != nil {
		return res, fmt.Errorf("load last fired: %w", err)
	}

	decision = s.evaluator.Decide(*opts, observed, now, last)
	if decision.Kind == policy.SendNow {
		swapped, err := s.store.CompareAndSwap(ctx, key, last, now)
		if err != nil {
			return res, fmt.Errorf("record last fired: %w", err)
		}
		if !swapped {
			decision, err = s.lostRace(ctx, key, *opts.Every, now)
			if err != nil {
				return res, err
			}
		}
	}
	res.Decision = decision
	return s.deliver(ctx, ev, *opts, res)
}

// lostRace turns a SendNow into Deferred after another worker claimed the
// same cadence boundary.
func (s *Service) lostRace(ctx context.Context, key string, every event.NotifyEvery, now time.Time) (policy.Decision, error) {
	cur, err := s.store.Get(ctx, key)
	if err != nil {
		return policy.Decision{}, fmt.Errorf("reload last fired: %w", err)
	}
	fired := now
	if cur != nil {
		fired = *cur
	}
	s.logger.Infow("notify_cadence_claimed_elsewhere", "key", key, "last_fired", fired)
	return policy.Decision{
		Kind:         policy.Deferred,
		NextEligible: s.evaluator.Next(every, fired),
		Reason:       "concurrent_fire",
	}, nil
}

func (s *Service) deliver(ctx context.Context, ev event.EventProtocol, opts event.NotificationOptions, res Result) (Result, error) {
	if !res.Decision.Send() {
		s.logger.Infow("notify_not_sent",
			"command", ev.Command,
			"observed", res.Observed,
			"decision", res.Decision.Kind,
			"reason", res.Decision.Reason,
			"next_eligible", res.Decision.NextEligible,
		)
		return res, nil
	}

	res.Message = Render(ev)
	out := s.dispatcher.Dispatch(ctx, opts, res.Message, s.senders)
	res.Outcome = &out

	if err := out.Err(); err != nil {
		s.logger.Warnw("dispatch_unconfigured_channel", "command", ev.Command, "err", err)
	}
	for _, e := range out.Entries {
		if !e.Outcome.OK() {
			s.logger.Warnw("dispatch_send_failed",
				"channel", e.Channel,
				"recipient", e.Recipient,
				"reason", e.Outcome.Reason,
			)
		}
	}
	s.logger.Infow("dispatch_finished",
		"command", ev.Command,
		"observed", res.Observed,
		"targets", out.Len(),
		"delivered", out.Delivered(),
		"failed", out.Failed(),
	)
	return res, nil
}

// Package pipeline runs the fetch, compose, generate, parse, dispatch and
// audit sequence over every unseen message.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"smart-mail-reply-go/internal/metrics"
	"smart-mail-reply-go/internal/model"
	"smart-mail-reply-go/internal/service/ai"
	"smart-mail-reply-go/internal/service/audit"
	"smart-mail-reply-go/internal/service/catalog"
	"smart-mail-reply-go/internal/service/composer"
	"smart-mail-reply-go/internal/service/dispatcher"
	"smart-mail-reply-go/internal/service/mailbox"
	"smart-mail-reply-go/internal/service/parser"
	"smart-mail-reply-go/internal/service/rules"
)

// Generator produces raw model output for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ai.Generation
}

// Ledger remembers processed messages across runs.
type Ledger interface {
	IsProcessed(ctx context.Context, key string) (bool, error)
	MarkProcessed(ctx context.Context, key string, category model.Category) error
}

// Deps are the collaborators of a Pipeline. Ledger is optional.
type Deps struct {
	Gateway    mailbox.Gateway
	Rules      rules.Store
	Catalog    catalog.Source
	Composer   *composer.Composer
	Engine     Generator
	Dispatcher dispatcher.Dispatcher
	Audit      audit.Writer
	Ledger     Ledger
	Metrics    *metrics.Metrics
}

// Options tune a Pipeline.
type Options struct {
	Folder string
	// ReplyOnError emails the apology text when no model answered.
	ReplyOnError bool
}

// Pipeline processes a mailbox folder. Runs are sequential; callers must not
// invoke Run concurrently.
type Pipeline struct {
	deps Deps
	opts Options
	now  func() time.Time
}

func New(deps Deps, opts Options) *Pipeline {
	if opts.Folder == "" {
		opts.Folder = "INBOX"
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.Empty{}
	}
	return &Pipeline{deps: deps, opts: opts, now: time.Now}
}

// Run processes every unseen message once. Only connection-level failures
// abort a run; they are reported in the summary with nothing processed.
func (p *Pipeline) Run(ctx context.Context) (summary model.RunSummary) {
	summary = model.RunSummary{RunID: uuid.NewString(), StartedAt: p.now()}
	log := logrus.WithField("run_id", summary.RunID)
	p.deps.Metrics.Runs.Inc()

	defer func() {
		summary.FinishedAt = p.now()
		p.deps.Metrics.RunDuration.Observe(summary.Duration().Seconds())
		log.WithFields(logrus.Fields{
			"fetched": summary.Fetched,
			"replied": summary.Replied,
			"logged":  summary.Logged,
			"failed":  summary.Failed,
			"aborted": summary.Aborted,
		}).Info("Run completed")
	}()

	abort := func(stage string, err error) model.RunSummary {
		summary.Aborted = true
		summary.AddFailure(model.KindOf(err), "", fmt.Sprintf("%s: %v", stage, err))
		p.deps.Metrics.RunAborts.Inc()
		log.WithField("stage", stage).Errorf("Run aborted: %v", err)
		return summary
	}

	if err := p.deps.Dispatcher.Verify(ctx); err != nil {
		if errors.Is(err, model.ErrAuth) {
			return abort("dispatcher", err)
		}
		log.Warnf("Dispatcher check failed, replies may not be delivered: %v", err)
	}

	sess, err := p.deps.Gateway.Connect(ctx)
	if err != nil {
		return abort("connect", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warnf("Failed to close mailbox session: %v", err)
		}
	}()

	if err := sess.SelectFolder(ctx, p.opts.Folder); err != nil {
		return abort("select", err)
	}

	handles, err := sess.ListUnseen(ctx)
	if err != nil {
		return abort("search", err)
	}
	log.Infof("Found %d unseen messages in %s", len(handles), p.opts.Folder)
	if len(handles) == 0 {
		return summary
	}

	catalogText := p.loadCatalog(ctx, log)

	for i, h := range handles {
		if ctx.Err() != nil {
			summary.AddFailure(model.FailureConnection, "", fmt.Sprintf("run cancelled with %d messages left unseen", len(handles)-i))
			break
		}
		// A message that has started is finished even if the run is cancelled.
		outcome := p.process(context.WithoutCancel(ctx), log, sess, h, catalogText, &summary)
		summary.Messages = append(summary.Messages, outcome)
	}

	return summary
}

func (p *Pipeline) loadCatalog(ctx context.Context, log *logrus.Entry) string {
	products, err := p.deps.Catalog.Products(ctx)
	if err != nil {
		log.Warnf("Failed to load catalog, continuing without it: %v", err)
		return ""
	}
	p.deps.Metrics.CatalogSize.Set(float64(len(products)))
	return catalog.Format(products)
}

func (p *Pipeline) process(ctx context.Context, runLog *logrus.Entry, sess mailbox.Session, h mailbox.Handle, catalogText string, summary *model.RunSummary) model.MessageOutcome {
	outcome := model.MessageOutcome{Handle: string(h), State: model.StateUnseen}
	log := runLog.WithField("handle", h)
	failed := false
	fail := func(kind model.FailureKind, id, cause string) {
		summary.AddFailure(kind, id, cause)
		failed = true
	}
	defer func() {
		if failed {
			summary.Failed++
		}
	}()

	msg, err := sess.Fetch(ctx, h)
	if err != nil {
		fail(model.FailureFetch, string(h), err.Error())
		outcome.State = model.StateFetchFailed
		log.Warnf("Failed to fetch message: %v", err)
		return outcome
	}
	summary.Fetched++
	p.deps.Metrics.MessagesFetched.Inc()
	outcome.State = model.StateFetched
	outcome.Sender, outcome.Subject = msg.Sender, msg.Subject

	id := msg.DedupeKey()
	log = log.WithField("message_id", id)

	if p.deps.Ledger != nil {
		done, err := p.deps.Ledger.IsProcessed(ctx, id)
		if err != nil {
			log.Warnf("Failed to check processed ledger: %v", err)
		} else if done {
			log.Info("Message already answered, skipping")
			outcome.State = model.StateSkipped
			return outcome
		}
	}

	prompt := p.deps.Composer.Compose(msg, p.deps.Rules.Rules(ctx), catalogText, p.now())
	outcome.State = model.StateComposed

	gen := p.deps.Engine.Generate(ctx, prompt)
	outcome.State = model.StateGenerated
	outcome.Model = gen.Model
	if gen.Failed {
		fail(model.FailureGeneration, id, gen.Err().Error())
		p.deps.Metrics.GenerationErrors.Inc()
	}

	category, answer := parser.Parse(gen.Raw)
	reply := model.ReplyResult{Category: category, Answer: answer, ModelUsed: gen.Model}
	outcome.State = model.StateParsed
	outcome.Category = reply.Category
	p.deps.Metrics.Categories.WithLabelValues(string(reply.Category)).Inc()
	log = log.WithFields(logrus.Fields{"category": reply.Category, "model": reply.ModelUsed})

	if !gen.Failed || p.opts.ReplyOnError {
		if p.deps.Dispatcher.Send(ctx, dispatcher.ReplyTo(msg, reply.Answer)) {
			outcome.Replied = true
			outcome.State = model.StateDispatched
			summary.Replied++
			p.deps.Metrics.RepliesSent.Inc()
		} else {
			outcome.State = model.StateDispatchFailed
			fail(model.FailureDispatch, id, "reply to "+msg.ReplyTo()+" could not be sent")
			p.deps.Metrics.ReplyFailures.Inc()
		}
	}

	rec := &model.AuditRecord{
		RunID:     summary.RunID,
		MessageID: id,
		Timestamp: p.now(),
		Sender:    msg.Sender,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Category:  reply.Category,
		Answer:    reply.Answer,
		Model:     reply.ModelUsed,
		Replied:   outcome.Replied,
	}
	if err := p.deps.Audit.Append(ctx, rec); err != nil {
		fail(model.FailureAudit, id, err.Error())
		p.deps.Metrics.AuditFailures.Inc()
		log.Errorf("Failed to append audit record: %v", err)
	} else {
		summary.Logged++
		outcome.State = model.StateLogged
	}

	if p.deps.Ledger != nil {
		if err := p.deps.Ledger.MarkProcessed(ctx, id, reply.Category); err != nil {
			log.Warnf("Failed to record processed message: %v", err)
		}
	}

	log.Info("Message processed")
	return outcome
}

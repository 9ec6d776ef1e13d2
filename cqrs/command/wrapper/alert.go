package wrapper

import (
	"context"
	"time"

	"github.com/rise-and-shine/blocks/alert"
	"github.com/rise-and-shine/blocks/cqrs/command"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/meta"
	"github.com/rise-and-shine/blocks/result"
)

const alertTimeout = 3 * time.Second

type AlertCommandWrapper[I command.Input, R command.Output] struct {
	logger        logger.Logger
	alertProvider alert.Provider
	next          command.Command[I, R]
	cmdName       string
}

// NewAlertCommandWrapper sends an alert for every unexpected failure. Alerts are sent in
// the background and never change the result.
func NewAlertCommandWrapper[I command.Input, R command.Output](
	l logger.Logger,
	alertProvider alert.Provider,
	cmdName string,
) command.WrapFunc[I, R] {
	return func(next command.Command[I, R]) command.Command[I, R] {
		return &AlertCommandWrapper[I, R]{
			logger:        l.Named("cqrs.command.alerting"),
			alertProvider: alertProvider,
			next:          next,
			cmdName:       cmdName,
		}
	}
}

func (cmd *AlertCommandWrapper[I, R]) Execute(ctx context.Context, input I) result.Result[R] {
	res := cmd.next.Execute(ctx, input)
	if res.IsOk() || res.Error().Kind.Expected() {
		return res
	}

	info := res.Error()
	details := make(map[string]string)
	for k, v := range meta.ExtractMetaFromContext(ctx) {
		details[string(k)] = v
	}

	alertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertTimeout)
	go func() {
		defer cancel()

		err := cmd.alertProvider.SendError(alertCtx, info.Code, info.Message, "command: "+cmd.cmdName, details)
		if err != nil {
			cmd.logger.With("alert_send_error", err).Warn("failed to send error alert")
		}
	}()

	return res
}

package tests

import (
	"context"
	"os"
	"testing"
	"time"

	"parsera-notifier/config"
	"parsera-notifier/internal/app/inngest/notification"
	"parsera-notifier/internal/envutil"
	pkginngest "parsera-notifier/internal/pkg/inngest"

	"github.com/inngest/inngestgo"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/fx"
)

type NotificationEventTestSuite struct {
	suite.Suite

	app    *fx.App
	client inngestgo.Client
}

func (s *NotificationEventTestSuite) SetupTest() {
	if !envutil.Bool(os.Getenv, "INNGEST_E2E", false) {
		s.T().Skip("INNGEST_E2E is required for the dev-server test")
	}

	var client inngestgo.Client

	s.app = fx.New(
		fx.Provide(func() *viper.Viper {
			vp := config.NewViper()
			vp.Set("INNGEST_DEV", "1")
			vp.Set("INNGEST_APP_ID", envutil.String(os.Getenv, "INNGEST_APP_ID", "parsera-notifier-test"))
			return vp
		}),
		fx.Provide(config.NewConfig),
		fx.Provide(pkginngest.NewInngestClient),
		fx.Populate(&client),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.Require().NoError(s.app.Start(ctx))
	s.client = client
}

func (s *NotificationEventTestSuite) TearDownTest() {
	if s.app == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.Require().NoError(s.app.Stop(ctx))
}

func (s *NotificationEventTestSuite) TestSendNotificationEvent() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	evtID, err := s.client.Send(ctx, inngestgo.Event{
		Name: notification.EventReceivedName,
		Data: map[string]any{
			"command": "register_crawler",
			"status":  "done",
			"data":    map[string]any{"name": "e2e"},
		},
		Timestamp: inngestgo.Timestamp(time.Now()),
	})
	s.Require().NoError(err)
	s.NotEmpty(evtID)
}

func TestNotificationEventTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationEventTestSuite))
}

func TestDisabledClientRefusesSends(t *testing.T) {
	client, err := pkginngest.NewInngestClient(&config.Config{})
	require.NoError(t, err)

	_, err = client.Send(context.Background(), inngestgo.Event{Name: notification.EventReceivedName})
	require.ErrorIs(t, err, pkginngest.ErrDisabled)
}

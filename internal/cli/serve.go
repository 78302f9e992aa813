package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ytakahashi/device-tasks/internal/handlers"
	"github.com/ytakahashi/device-tasks/internal/screen"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(v *viper.Viper, load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Mount the task screen and serve it over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, load, func(ctx context.Context, a *app) error {
				return serve(ctx, a)
			})
		},
	}
	cmd.Flags().String("port", "", "listen port (default 8080)")
	v.BindPFlag("port", cmd.Flags().Lookup("port"))
	return cmd
}

func serve(ctx context.Context, a *app) error {
	scr := screen.New(a.tasks)
	scr.Mount(ctx)
	defer scr.Unmount()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	handlers.NewScreenHandler(scr).Register(e)

	if token := a.cfg.LINE.ChannelToken; token != "" {
		bot, err := messaging_api.NewMessagingApiAPI(token)
		if err != nil {
			return fmt.Errorf("failed to create LINE bot client: %w", err)
		}
		e.POST("/webhook", handlers.NewWebhookHandler(bot, a.cfg.LINE.ChannelSecret, scr).HandleWebhook)
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", a.cfg.Port)
		errc <- e.Start(":" + a.cfg.Port)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

package cmd

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"turbodelivery/internal/adapters/out/memory"
	"turbodelivery/internal/core/domain/model/courier"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order/ordertest"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestCompositionRoot(t *testing.T) {
	t.Run("should wire every entry point without brokers", func(t *testing.T) {
		// Given
		cfg, err := ConfigFromEnv(func(string) (string, bool) { return "", false })
		require.NoError(t, err)
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))

		// When
		root, err := newCompositionRoot(cfg, nil, memory.NewUnitOfWorkFactory(memory.NewStore()), logger)

		// Then
		require.NoError(t, err)
		require.Nil(t, root.Bus())
		require.Same(t, root.hub, root.notifier)

		e := echo.New()
		require.NoError(t, root.CreateHTTPServer().Register(e, root.CreateWebsocketHandler().Serve))
		require.NotNil(t, root.CreateJobManager())

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		require.NoError(t, root.Close(t.Context()))
	})

	t.Run("should void open offers when a courier disconnects", func(t *testing.T) {
		// Given
		cfg, err := ConfigFromEnv(func(string) (string, bool) { return "", false })
		require.NoError(t, err)
		store := memory.NewUnitOfWorkFactory(memory.NewStore())
		root, err := newCompositionRoot(cfg, nil, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		defer func() { _ = root.Close(t.Context()) }()

		courierID := kernel.NewUUID()
		profile, err := courier.NewCourier(courierID, 0)
		require.NoError(t, err)
		profile.Approve()
		require.NoError(t, store.Create().CourierRepository().Add(t.Context(), profile))
		require.NoError(t, root.presence.Connect(t.Context(), courierID, "conn-1"))
		_, err = root.presence.SetAvailability(courierID, true, true)
		require.NoError(t, err)

		o := ordertest.Placed(t, kernel.NewUUID())
		n, err := root.engine.Offer(t.Context(), o)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		// When
		require.True(t, root.presence.Disconnect(t.Context(), courierID, "conn-1"))

		// Then
		require.Empty(t, root.engine.Offered(o.ID()))
	})
}

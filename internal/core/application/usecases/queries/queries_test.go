package queries_test

import (
	"testing"

	"turbodelivery/internal/core/application/usecases/queries"
	"turbodelivery/internal/core/domain/model/kernel"
	"turbodelivery/internal/core/domain/model/order/ordertest"
	"turbodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGetCouriersQuery(t *testing.T) {
	t.Run("should accept an admin", func(t *testing.T) {
		query, err := queries.NewGetCouriersQuery(ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID()))
		require.NoError(t, err)
		require.NoError(t, query.Validate())
	})

	t.Run("should refuse everyone else", func(t *testing.T) {
		for _, role := range []kernel.Role{kernel.RoleCustomer, kernel.RoleCourier} {
			_, err := queries.NewGetCouriersQuery(ordertest.Actor(t, role, kernel.NewUUID()))
			require.ErrorIs(t, err, errs.ErrForbidden, role.String())
		}
	})
}

func TestNewGetActiveOrdersQuery(t *testing.T) {
	_, err := queries.NewGetActiveOrdersQuery(ordertest.Actor(t, kernel.RoleCustomer, kernel.NewUUID()))
	require.ErrorIs(t, err, errs.ErrForbidden)

	query, err := queries.NewGetActiveOrdersQuery(ordertest.Actor(t, kernel.RoleAdmin, kernel.NewUUID()))
	require.NoError(t, err)
	require.NoError(t, query.Validate())
}

func TestNewGetOrderQuery_InvalidArguments(t *testing.T) {
	_, err := queries.NewGetOrderQuery(kernel.Actor{}, kernel.NewUUID())
	require.Error(t, err)

	_, err = queries.NewGetCourierLocationQuery(ordertest.Actor(t, kernel.RoleCustomer, kernel.NewUUID()), kernel.UUID{})
	require.Error(t, err)
}

func TestQueries_NotConstructedViaConstructor(t *testing.T) {
	assert.ErrorIs(t, queries.GetCouriersQuery{}.Validate(), queries.ErrGetCouriersQueryIsNotConstructed)
	assert.ErrorIs(t, queries.GetActiveOrdersQuery{}.Validate(), queries.ErrGetActiveOrdersQueryIsNotConstructed)
	assert.ErrorIs(t, queries.GetOrderQuery{}.Validate(), queries.ErrGetOrderQueryIsNotConstructed)
	assert.ErrorIs(t, queries.GetCourierLocationQuery{}.Validate(), queries.ErrGetCourierLocationQueryIsNotConstructed)
}

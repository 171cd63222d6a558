package owner

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/internal/authz"
	"github.com/zfogg/menuboard/internal/fakeapi"
	"github.com/zfogg/menuboard/pkg/menu"
)

const secret = "open-sesame"

type changeLog struct {
	ops []string
	ids []menu.ItemID
}

func (l *changeLog) record(_ context.Context, op string, id menu.ItemID) {
	l.ops = append(l.ops, op)
	l.ids = append(l.ids, id)
}

func setup(t *testing.T) (*fakeapi.Server, *Flow, *changeLog) {
	t.Helper()
	api := fakeapi.New(secret)
	ts, base := api.Start()
	t.Cleanup(ts.Close)

	changes := &changeLog{}
	return api, NewFlow(menu.New(menu.Options{BaseURL: base}), changes.record), changes
}

func TestParsePrice(t *testing.T) {
	valid := map[string]string{
		"12":     "12",
		"12.5":   "12.5",
		" 7.25 ": "7.25",
		"$19.99": "19.99",
		"0.01":   "0.01",
	}
	for in, want := range valid {
		d, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d.String(), in)
	}

	for _, in := range []string{"", "  ", "abc", "12abc", "0", "0.00", "-3", "NaN", "$", "3.", ".5",
		"1e99999999", "1e3", "1E3", "2.5e-1", "+5", "0x10", "1_000", strings.Repeat("9", 21)} {
		_, err := ParsePrice(in)
		require.Error(t, err, in)

		var ae *apperr.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, apperr.KindValidation, ae.Kind)
		assert.Equal(t, MsgInvalidPrice, ae.Message)
	}
}

func TestLoadEdit_PrefillsPrice(t *testing.T) {
	api, flow, _ := setup(t)
	seeded := api.Seed(2, 11)

	form, err := flow.LoadEdit(context.Background(), seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, seeded[1].ID, form.ItemID)
	assert.Equal(t, seeded[1].Title, form.Title)
	assert.Equal(t, seeded[1].Price.String(), form.Price)
	assert.Empty(t, form.Secret)
}

func TestLoadEdit_Missing(t *testing.T) {
	_, flow, _ := setup(t)

	_, err := flow.LoadEdit(context.Background(), "77")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
}

func TestSubmitEdit_InvalidPriceMakesNoRequest(t *testing.T) {
	api, flow, changes := setup(t)
	seeded := api.Seed(1, 1)
	api.Reset()

	for _, price := range []string{"", "free", "0", "-1"} {
		form := EditForm{ItemID: seeded[0].ID, Price: price}
		err := flow.SubmitEdit(context.Background(), form, authz.Static(secret))
		require.Error(t, err)
		assert.Equal(t, MsgInvalidPrice, apperr.Message(err))
	}

	assert.Empty(t, api.Requests())
	assert.Empty(t, changes.ops)
}

func TestSubmitEdit_EmptySecretMakesNoRequest(t *testing.T) {
	api, flow, _ := setup(t)
	seeded := api.Seed(1, 1)
	api.Reset()

	err := flow.SubmitEdit(context.Background(), EditForm{ItemID: seeded[0].ID, Price: "10"}, authz.Static(""))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindDeclined, ae.Kind)
	assert.Empty(t, api.Requests())
}

func TestSubmitEdit_Success(t *testing.T) {
	api, flow, changes := setup(t)
	seeded := api.Seed(1, 1)

	err := flow.SubmitEdit(context.Background(), EditForm{ItemID: seeded[0].ID, Price: "31.50"}, authz.Static(secret))
	require.NoError(t, err)

	assert.Equal(t, "31.5", api.Items()[0].Price.String())
	assert.Equal(t, []string{menu.OpUpdate}, changes.ops)
	assert.Equal(t, []menu.ItemID{seeded[0].ID}, changes.ids)
}

func TestSubmitEdit_RejectedSecretKeepsServerMessage(t *testing.T) {
	api, flow, changes := setup(t)
	seeded := api.Seed(1, 1)

	err := flow.SubmitEdit(context.Background(), EditForm{ItemID: seeded[0].ID, Price: "5"}, authz.Static("wrong"))
	require.Error(t, err)
	assert.Equal(t, "Invalid secret key", apperr.Message(err))
	assert.Equal(t, http.StatusForbidden, apperr.Categorize(err).StatusCode)
	assert.Empty(t, changes.ops)
	assert.True(t, seeded[0].Price.Equal(api.Items()[0].Price), "no optimistic update")
}

func TestAdd(t *testing.T) {
	api, flow, changes := setup(t)

	err := flow.Add(context.Background(), AddForm{
		Title:       "  Misir Wat ",
		Price:       "14",
		Description: "Red lentils",
		ImageURL:    "http://x/misir.jpg",
	}, authz.Static(secret))
	require.NoError(t, err)

	items := api.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Misir Wat", items[0].Title)
	assert.Equal(t, "http://x/misir.jpg", items[0].ImageURL)
	assert.Equal(t, []string{menu.OpCreate}, changes.ops)
}

func TestAdd_ValidationBeforeNetwork(t *testing.T) {
	api, flow, _ := setup(t)

	err := flow.Add(context.Background(), AddForm{Title: " ", Price: "4"}, authz.Static(secret))
	assert.Equal(t, MsgTitleMissing, apperr.Message(err))

	err = flow.Add(context.Background(), AddForm{Title: "Tea", Price: "0"}, authz.Static(secret))
	assert.Equal(t, MsgInvalidPrice, apperr.Message(err))

	err = flow.Add(context.Background(), AddForm{Title: "Tea", Price: "2"}, authz.Static(""))
	assert.Equal(t, apperr.MsgSecretNeeded, apperr.Message(err))

	assert.Empty(t, api.Requests())
}

func TestDelete(t *testing.T) {
	api, flow, changes := setup(t)
	seeded := api.Seed(2, 5)

	require.NoError(t, flow.Delete(context.Background(), seeded[0].ID, authz.Static(secret)))
	assert.Len(t, api.Items(), 1)
	assert.Equal(t, []string{menu.OpDelete}, changes.ops)

	err := flow.Delete(context.Background(), seeded[0].ID, authz.Static(secret))
	assert.Equal(t, "Menu item not found", apperr.Message(err))
}

func TestDelete_ServerFailureGenericMessage(t *testing.T) {
	api, flow, _ := setup(t)
	seeded := api.Seed(1, 5)
	api.FailNext(http.MethodDelete, http.StatusBadGateway, "")

	err := flow.Delete(context.Background(), seeded[0].ID, authz.Static(secret))
	assert.Equal(t, apperr.MsgDeleteFailed, apperr.Message(err))
	assert.Len(t, api.Items(), 1)
}

func TestSuccessMessage(t *testing.T) {
	assert.Equal(t, "Menu item updated successfully!", SuccessMessage(menu.OpUpdate))
	assert.Equal(t, apperr.MsgCreated, SuccessMessage(menu.OpCreate))
	assert.Equal(t, apperr.MsgDeleted, SuccessMessage(menu.OpDelete))
}

package mailbox

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"smart-mail-reply-go/internal/model"
)

type fakeGmailAPI struct {
	profileErr error
	labels     []*gmail.Label
	unread     map[string][]string
	raw        map[string]string
	removed    map[string][]string
}

func (f *fakeGmailAPI) Profile(ctx context.Context) error { return f.profileErr }

func (f *fakeGmailAPI) Labels(ctx context.Context) ([]*gmail.Label, error) { return f.labels, nil }

func (f *fakeGmailAPI) ListUnread(ctx context.Context, labelID string) ([]string, error) {
	return f.unread[labelID], nil
}

func (f *fakeGmailAPI) Raw(ctx context.Context, id string) (string, error) { return f.raw[id], nil }

func (f *fakeGmailAPI) RemoveLabels(ctx context.Context, id string, labels ...string) error {
	if f.removed == nil {
		f.removed = map[string][]string{}
	}
	f.removed[id] = append(f.removed[id], labels...)
	return nil
}

func gatewayFor(api *fakeGmailAPI) *GmailGateway {
	return &GmailGateway{newAPI: func(context.Context) (gmailAPI, error) { return api, nil }}
}

func TestGmailGatewayFetchesByLabel(t *testing.T) {
	api := &fakeGmailAPI{
		labels: []*gmail.Label{{Id: "Label_42", Name: "Support"}},
		unread: map[string][]string{"Label_42": {"newer", "older"}},
		raw: map[string]string{
			"older": base64.URLEncoding.EncodeToString([]byte(plainMessage)),
		},
	}
	ctx := context.Background()

	sess, err := gatewayFor(api).Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SelectFolder(ctx, "support"))

	handles, err := sess.ListUnseen(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Handle{"older", "newer"}, handles)

	msg, err := sess.Fetch(ctx, "older")
	require.NoError(t, err)
	assert.Equal(t, "older", msg.Handle)
	assert.Equal(t, "Where is my order?", msg.Subject)
	assert.Equal(t, []string{"UNREAD"}, api.removed["older"])
}

func TestGmailGatewayMarksUndecodableMessageRead(t *testing.T) {
	api := &fakeGmailAPI{
		raw: map[string]string{"m1": "%%% not base64 %%%"},
	}
	ctx := context.Background()

	sess, err := gatewayFor(api).Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.SelectFolder(ctx, "inbox"))

	_, err = sess.Fetch(ctx, "m1")
	require.Error(t, err)
	assert.Equal(t, []string{"UNREAD"}, api.removed["m1"])
}

func TestGmailGatewayErrors(t *testing.T) {
	ctx := context.Background()

	_, err := gatewayFor(&fakeGmailAPI{profileErr: &googleapi.Error{Code: http.StatusUnauthorized}}).Connect(ctx)
	require.ErrorIs(t, err, model.ErrAuth)

	sess, err := gatewayFor(&fakeGmailAPI{}).Connect(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, sess.SelectFolder(ctx, "missing"), model.ErrFolderNotFound)
	require.NoError(t, sess.SelectFolder(ctx, "inbox"))
}

package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Kind
	}{
		{"Error: Unspent record not found for input 0", KindStaleRecord},
		{"record not found", KindStaleRecord},
		{"Input is not a valid record type", KindRecordUnavailable},
		{"INVALID_PARAMS", KindRecordUnavailable},
		{"Permission Not Granted", KindPermissionDenied},
		{"NOT_GRANTED", KindPermissionDenied},
		{"No CreditBadge found in your wallet", KindNoBadge},
		{"User rejected the request", KindUserRejected},
		{"An unknown error occured", KindStaleRecord},
		{"socket hang up", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			fe := Classify("request_loan", errors.New(tt.text))
			require.NotNil(t, fe)
			assert.Equal(t, tt.want, fe.Kind)
			assert.Equal(t, "request_loan", fe.Op)
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	orig := New(KindBelowFloor, "verify", "too low")
	wrapped := fmt.Errorf("flow: %w", orig)

	fe := Classify("other", wrapped)
	assert.Same(t, orig, fe)
	assert.Nil(t, Classify("noop", nil))
}

func TestKindOfAndMessage(t *testing.T) {
	cause := errors.New("Unspent record not found")
	err := fmt.Errorf("request loan: %w", Classify("request_loan", cause))

	assert.Equal(t, KindStaleRecord, KindOf(err))
	assert.Contains(t, Message(err), "already used in a previous transaction")
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestRemedy(t *testing.T) {
	assert.Equal(t, RemedyReconnect, KindPermissionDenied.Remedy())
	assert.Equal(t, RemedyRefresh, KindStaleRecord.Remedy())
	assert.Equal(t, RemedyInstall, KindNotInstalled.Remedy())
	assert.Equal(t, RemedyReverify, KindNoBadge.Remedy())
	assert.Equal(t, RemedyRetry, KindBelowFloor.Remedy())
	assert.Equal(t, "stale_record", KindStaleRecord.String())
}

func TestNewUsesCannedMessage(t *testing.T) {
	err := New(KindNoBadge, "renew_badge", "")
	assert.Contains(t, err.Message, "No CreditBadge found")
	assert.Equal(t, "custom", New(KindNoBadge, "renew_badge", "custom").Message)
	assert.Empty(t, New(KindIneligible, "op", "").Message)
}

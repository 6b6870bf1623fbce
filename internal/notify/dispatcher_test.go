package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/Hundslouch/reminder-bot/internal/domain"
	"github.com/Hundslouch/reminder-bot/internal/mocks"
)

func TestDispatcher_Send(t *testing.T) {
	tests := []struct {
		name      string
		buildMock func(sender *mocks.MockSender)
		wantErr   error
	}{
		{
			name: "Should deliver through the sender",
			buildMock: func(sender *mocks.MockSender) {
				sender.EXPECT().SendMessage(gomock.Any(), int64(42), "Ann, don't forget: buy milk").Return(nil).Times(1)
			},
		},
		{
			name: "Should classify transport errors as transient",
			buildMock: func(sender *mocks.MockSender) {
				sender.EXPECT().SendMessage(gomock.Any(), int64(42), gomock.Any()).
					Return(errors.New("Forbidden: bot was blocked by the user")).Times(1)
			},
			wantErr: domain.ErrTransientFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			sender := mocks.NewMockSender(ctrl)
			tt.buildMock(sender)

			d := NewDispatcher(sender, zap.NewNop(), time.Second)
			err := d.Send(context.Background(), 42, FormatNotification("Ann", "buy milk"))
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDispatcher_SendHonoursTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().SendMessage(gomock.Any(), int64(1), "x").
		DoAndReturn(func(ctx context.Context, _ int64, _ string) error {
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "send must run under a deadline")
			assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
			<-ctx.Done()
			return ctx.Err()
		})

	d := NewDispatcher(sender, zap.NewNop(), 50*time.Millisecond)
	err := d.Send(context.Background(), 1, "x")
	assert.ErrorIs(t, err, domain.ErrTransientFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewDispatcher_DefaultTimeout(t *testing.T) {
	d := NewDispatcher(nil, zap.NewNop(), 0)
	assert.Equal(t, DefaultSendTimeout, d.timeout)
}

func TestFormatNotification(t *testing.T) {
	assert.Equal(t, "Ann, don't forget: buy milk", FormatNotification("Ann", "buy milk"))
	assert.Equal(t, "Hey, don't forget: stretch", FormatNotification("  ", "stretch"))
}

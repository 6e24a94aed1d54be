package apiconnect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestCodec_PlainMessages(t *testing.T) {
	codec := Codec{}
	assert.Equal(t, "json", codec.Name())

	in := &api.Split{
		ID:        "s1",
		Amount:    "12.50",
		Settled:   true,
		SettledAt: timestamppb.New(time.Unix(1700000000, 0)),
	}
	data, err := codec.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":"12.50"`)

	var out api.Split
	require.NoError(t, codec.Unmarshal(data, &out))
	assert.Equal(t, "12.50", out.Amount)
	require.NotNil(t, out.SettledAt)
	assert.Equal(t, int64(1700000000), out.SettledAt.AsTime().Unix())
}

func TestCodec_ProtoMessages(t *testing.T) {
	codec := Codec{}
	data, err := codec.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	var out emptypb.Empty
	require.NoError(t, codec.Unmarshal(data, &out))
	require.NoError(t, codec.Unmarshal(nil, &out))
}

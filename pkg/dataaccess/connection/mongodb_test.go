package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMongoDB_GenerateConnectionString(t *testing.T) {
	tests := []struct {
		name string
		m    *MongoDB
		want string
	}{
		{
			name: "full",
			m:    &MongoDB{Username: "u", Password: "p", Host: "cluster.example.net", Port: "27017", Args: "retryWrites=true"},
			want: "mongodb+srv://u:p@cluster.example.net:27017/?retryWrites=true",
		},
		{
			name: "username only",
			m:    &MongoDB{Username: "u", Host: "h"},
			want: "mongodb+srv://u@h",
		},
		{
			name: "host only",
			m:    &MongoDB{Host: "h"},
			want: "mongodb+srv://h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.m.GenerateConnectionString()
			require.Equal(t, tt.want, tt.m.ConnectionString)
		})
	}
}

func TestTimeoutOrDefault(t *testing.T) {
	require.Equal(t, 5*time.Second, timeoutOrDefault(0))
	require.Equal(t, time.Second, timeoutOrDefault(time.Second))
}

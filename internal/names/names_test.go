package names

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) GroupMemberName(ctx context.Context, groupID, userID string) (string, error) {
	args := m.Called(ctx, groupID, userID)
	return args.String(0), args.Error(1)
}

func (m *mockLookup) RoomMemberName(ctx context.Context, roomID, userID string) (string, error) {
	args := m.Called(ctx, roomID, userID)
	return args.String(0), args.Error(1)
}

func (m *mockLookup) ProfileName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func TestResolveUsesSourceSpecificLookup(t *testing.T) {
	ctx := context.Background()
	lookup := new(mockLookup)
	lookup.On("GroupMemberName", mock.Anything, "G1", "U-group").Return("Somchai", nil).Once()
	lookup.On("RoomMemberName", mock.Anything, "R1", "U-room").Return("Malee", nil).Once()
	lookup.On("ProfileName", mock.Anything, "U-direct").Return("Niran", nil).Once()

	r := NewResolver(lookup)

	assert.Equal(t, "Somchai", r.Resolve(ctx, Source{Type: SourceGroup, GroupID: "G1"}, "U-group"))
	assert.Equal(t, "Malee", r.Resolve(ctx, Source{Type: SourceRoom, RoomID: "R1"}, "U-room"))
	assert.Equal(t, "Niran", r.Resolve(ctx, Source{Type: SourceUser, UserID: "U-direct"}, "U-direct"))

	// Second round is served from the cache.
	assert.Equal(t, "Somchai", r.Resolve(ctx, Source{Type: SourceGroup, GroupID: "G1"}, "U-group"))
	lookup.AssertExpectations(t)
}

func TestResolveEntryLifetimes(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ProfileName", mock.Anything, "Ugood").Return("Ploy", nil).Once()
	lookup.On("ProfileName", mock.Anything, "Ubroken").Return("", errors.New("403")).Once()

	r := NewResolver(lookup, WithTTL(time.Hour, time.Minute))
	r.Resolve(context.Background(), Source{}, "Ugood")
	r.Resolve(context.Background(), Source{}, "Ubroken")

	good := r.cache.Get("Ugood")
	require.NotNil(t, good)
	assert.Equal(t, time.Hour, good.TTL())

	broken := r.cache.Get("Ubroken")
	require.NotNil(t, broken)
	assert.Equal(t, time.Minute, broken.TTL())
	assert.Equal(t, "Ubroke", broken.Value())
	lookup.AssertExpectations(t)
}

func TestResolveFallbackExpires(t *testing.T) {
	ctx := context.Background()
	lookup := new(mockLookup)
	lookup.On("ProfileName", mock.Anything, "U1234567890").Return("", errors.New("403")).Once()
	lookup.On("ProfileName", mock.Anything, "U1234567890").Return("Ploy", nil).Once()

	var results []string
	r := NewResolver(lookup,
		WithTTL(time.Hour, 20*time.Millisecond),
		WithObserver(func(res string) { results = append(results, res) }),
	)
	src := Source{Type: SourceUser}

	assert.Equal(t, "U12345", r.Resolve(ctx, src, "U1234567890"))
	assert.Equal(t, "U12345", r.Resolve(ctx, src, "U1234567890"))

	assert.Eventually(t, func() bool {
		_, ok := r.Cached("U1234567890")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Ploy", r.Resolve(ctx, src, "U1234567890"))

	name, ok := r.Cached("U1234567890")
	assert.True(t, ok)
	assert.Equal(t, "Ploy", name)

	assert.Equal(t, []string{"fallback", "hit", "lookup"}, results)
	lookup.AssertExpectations(t)
}

func TestResolveCapacity(t *testing.T) {
	r := NewResolver(nil, WithCapacity(2))
	for _, id := range []string{"Ua", "Ub", "Uc"} {
		r.Resolve(context.Background(), Source{}, id)
	}
	assert.Equal(t, 2, r.cache.Len())
	_, ok := r.Cached("Ua")
	assert.False(t, ok)
}

func TestResolveEmptyNameFallsBack(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("GroupMemberName", mock.Anything, "G1", "Uabcdefgh").Return("", nil)

	r := NewResolver(lookup)
	assert.Equal(t, "Uabcde", r.Resolve(context.Background(), Source{Type: SourceGroup, GroupID: "G1"}, "Uabcdefgh"))
}

func TestResolveWithoutLookup(t *testing.T) {
	r := NewResolver(nil)
	assert.Equal(t, "Uabcde", r.Resolve(context.Background(), Source{}, "Uabcdefgh"))
}

func TestResolveLookupHonoursTimeout(t *testing.T) {
	lookup := new(mockLookup)
	lookup.On("ProfileName", mock.Anything, "Uslowuser").
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return("", context.DeadlineExceeded)

	r := NewResolver(lookup, WithTimeout(10*time.Millisecond))
	assert.Equal(t, "Uslowu", r.Resolve(context.Background(), Source{}, "Uslowuser"))
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "U12", Fallback("U12"))
	assert.Equal(t, "", Fallback(""))
	assert.Equal(t, "U12345", Fallback("U1234567"))
}

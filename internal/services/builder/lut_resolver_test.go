package builder

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/hxuan190/swap-executor/internal/common"
)

type stubAccountFetcher struct {
	accounts map[solana.PublicKey][]byte
	err      error
}

func (s *stubAccountFetcher) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	raw, ok := s.accounts[account]
	if !ok {
		return &rpc.GetAccountInfoResult{}, nil
	}
	data := rpc.DataBytesOrJSONFromBytes(raw)
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Data: &data,
		},
	}, nil
}

// lookupTableAccountData serializes lookup table state the way the on-chain
// program stores it: a 56 byte meta header followed by raw 32 byte addresses.
func lookupTableAccountData(addresses []solana.PublicKey) []byte {
	meta := make([]byte, 56)
	binary.LittleEndian.PutUint32(meta[0:4], 1)                       // TypeIndex: LookupTable
	binary.LittleEndian.PutUint64(meta[4:12], math.MaxUint64)         // DeactivationSlot: active
	binary.LittleEndian.PutUint64(meta[12:20], 1000)                  // LastExtendedSlot
	meta[20] = 0                                                      // LastExtendedSlotStartIndex
	meta[21] = 1                                                      // Authority: Some
	copy(meta[22:54], solana.NewWallet().PublicKey().Bytes())

	out := meta
	for _, addr := range addresses {
		out = append(out, addr.Bytes()...)
	}
	return out
}

func TestResolveLookupTables(t *testing.T) {
	table := solana.NewWallet().PublicKey()
	entries := []solana.PublicKey{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}

	fetcher := &stubAccountFetcher{
		accounts: map[solana.PublicKey][]byte{
			table: lookupTableAccountData(entries),
		},
	}
	resolver := NewLookupTableResolver(fetcher)

	tables, err := resolver.Resolve(context.Background(), []solana.PublicKey{table})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resolved, ok := tables[table]
	if !ok {
		t.Fatal("table missing from result")
	}
	if len(resolved) != len(entries) {
		t.Fatalf("resolved %d addresses, want %d", len(resolved), len(entries))
	}
	for i, addr := range resolved {
		if !addr.Equals(entries[i]) {
			t.Errorf("address %d = %s, want %s", i, addr, entries[i])
		}
	}
}

func TestResolveFailsWhenFetchFails(t *testing.T) {
	fetcher := &stubAccountFetcher{err: errors.New("rpc down")}
	resolver := NewLookupTableResolver(fetcher)

	_, err := resolver.Resolve(context.Background(), []solana.PublicKey{solana.NewWallet().PublicKey()})
	if !errors.Is(err, common.ErrLookupTableUnavailable) {
		t.Errorf("error = %v, want ErrLookupTableUnavailable", err)
	}
}

func TestResolveFailsWhenAccountMissing(t *testing.T) {
	fetcher := &stubAccountFetcher{accounts: map[solana.PublicKey][]byte{}}
	resolver := NewLookupTableResolver(fetcher)

	_, err := resolver.Resolve(context.Background(), []solana.PublicKey{solana.NewWallet().PublicKey()})
	if !errors.Is(err, common.ErrLookupTableUnavailable) {
		t.Errorf("error = %v, want ErrLookupTableUnavailable", err)
	}
}

// One bad table fails the whole resolution even when other tables are fine.
func TestResolveAllOrNothing(t *testing.T) {
	goodTable := solana.NewWallet().PublicKey()
	badTable := solana.NewWallet().PublicKey()

	fetcher := &stubAccountFetcher{
		accounts: map[solana.PublicKey][]byte{
			goodTable: lookupTableAccountData([]solana.PublicKey{solana.NewWallet().PublicKey()}),
			badTable:  {0xde, 0xad, 0xbe, 0xef},
		},
	}
	resolver := NewLookupTableResolver(fetcher)

	_, err := resolver.Resolve(context.Background(), []solana.PublicKey{goodTable, badTable})
	if !errors.Is(err, common.ErrLookupTableUnavailable) {
		t.Errorf("error = %v, want ErrLookupTableUnavailable", err)
	}
}

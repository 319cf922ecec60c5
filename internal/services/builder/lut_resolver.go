package builder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/swap-executor/internal/common"
)

// AccountFetcher is the slice of the RPC client the resolver needs.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// LookupTableResolver fetches and decodes address lookup table accounts.
// Tables are fetched fresh on every call; a stale table would desync account
// indexes in the compiled message, so there is no cache here.
type LookupTableResolver struct {
	rpcClient AccountFetcher
}

func NewLookupTableResolver(rpcClient AccountFetcher) *LookupTableResolver {
	return &LookupTableResolver{rpcClient: rpcClient}
}

// Resolve maps every requested table address to its address list. Resolution
// is all-or-nothing: one missing or undecodable table fails the whole call,
// since a partially resolved message cannot reference the dropped accounts.
func (r *LookupTableResolver) Resolve(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(addresses))

	for _, address := range addresses {
		info, err := r.rpcClient.GetAccountInfo(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("%w: fetch %s: %v", common.ErrLookupTableUnavailable, address, err)
		}
		if info == nil || info.Value == nil {
			return nil, fmt.Errorf("%w: account %s does not exist", common.ErrLookupTableUnavailable, address)
		}

		state, err := addresslookuptable.DecodeAddressLookupTableState(info.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", common.ErrLookupTableUnavailable, address, err)
		}

		log.Debug().
			Str("table", address.String()).
			Int("addresses", len(state.Addresses)).
			Msg("[lutResolver] resolved lookup table")

		tables[address] = state.Addresses
	}

	return tables, nil
}

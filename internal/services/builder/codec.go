package builder

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/swap-executor/internal/common"
	"github.com/hxuan190/swap-executor/internal/domain"
)

// DecodeInstruction turns a wire-form instruction from the swap API into an
// executable one. Any malformed field fails the whole instruction.
func DecodeInstruction(raw *domain.SerializedInstruction) (*domain.Instruction, error) {
	programID, err := solana.PublicKeyFromBase58(raw.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid program id %q: %v", common.ErrDecode, raw.ProgramID, err)
	}

	accounts := make(solana.AccountMetaSlice, 0, len(raw.Accounts))
	for i, acc := range raw.Accounts {
		pubkey, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid account %d pubkey %q: %v", common.ErrDecode, i, acc.Pubkey, err)
		}
		accounts = append(accounts, &solana.AccountMeta{
			PublicKey:  pubkey,
			IsSigner:   acc.IsSigner,
			IsWritable: acc.IsWritable,
		})
	}

	data, err := base64.StdEncoding.DecodeString(raw.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 data: %v", common.ErrDecode, err)
	}

	return &domain.Instruction{
		ProgramID: programID,
		Accounts:  accounts,
		Data:      data,
	}, nil
}

// DecodeInstructions decodes a slice of wire-form instructions, preserving
// order.
func DecodeInstructions(raw []domain.SerializedInstruction) ([]domain.Instruction, error) {
	out := make([]domain.Instruction, 0, len(raw))
	for i := range raw {
		decoded, err := DecodeInstruction(&raw[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *decoded)
	}
	return out, nil
}

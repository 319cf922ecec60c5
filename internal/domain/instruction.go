package domain

import "github.com/gagliardetto/solana-go"

// SerializedAccount is the wire form of an account meta as returned by the
// swap instruction API.
type SerializedAccount struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// SerializedInstruction is the wire form of an instruction: base58 program id,
// ordered account metas, base64 opaque data.
type SerializedInstruction struct {
	ProgramID string              `json:"programId"`
	Accounts  []SerializedAccount `json:"accounts"`
	Data      string              `json:"data"`
}

// Instruction is a decoded, executable instruction.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  solana.AccountMetaSlice
	Data      []byte
}

func (ix *Instruction) Compile() solana.Instruction {
	return solana.NewInstruction(ix.ProgramID, ix.Accounts, ix.Data)
}

// InstructionSet groups the decoded instructions of one swap in execution
// order. Setup may be empty and Cleanup may be nil; Swap is always present.
type InstructionSet struct {
	Setup   []Instruction
	Swap    Instruction
	Cleanup *Instruction

	LookupTableAddresses []solana.PublicKey
}

// Flatten returns the instructions in execution order, compiled for message
// building.
func (s *InstructionSet) Flatten() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(s.Setup)+2)
	for i := range s.Setup {
		out = append(out, s.Setup[i].Compile())
	}
	out = append(out, s.Swap.Compile())
	if s.Cleanup != nil {
		out = append(out, s.Cleanup.Compile())
	}
	return out
}

// ComputeBudget carries the per-transaction compute budget. A zero UnitLimit
// means "do not set a limit"; UnitPriceMicroLamports is always applied.
type ComputeBudget struct {
	UnitLimit              uint32
	UnitPriceMicroLamports uint64
}

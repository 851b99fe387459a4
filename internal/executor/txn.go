package executor

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"

	"titan-sniper/internal/solana"
)

// Signer produces ed25519 signatures for transaction messages.
type Signer interface {
	PublicKey() string
	Sign(message []byte) []byte
}

// AccountMeta is one account reference in an instruction.
type AccountMeta struct {
	PubKey   string
	Signer   bool
	Writable bool
}

// Instruction is one program invocation in a transaction.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// appendCompactU16 appends a Solana compact-u16 length prefix.
func appendCompactU16(buf []byte, n int) []byte {
	for {
		if n < 0x80 {
			return append(buf, byte(n))
		}
		buf = append(buf, byte(n&0x7f)|0x80)
		n >>= 7
	}
}

// decodeCompactU16 reads a compact-u16, returning the value and the number
// of bytes consumed (0 on malformed input).
func decodeCompactU16(data []byte) (int, int) {
	var value, shift int
	for i := 0; i < len(data) && i < 3; i++ {
		b := data[i]
		value |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1
		}
		shift += 7
	}
	return 0, 0
}

// keySlot tracks an account's role while assembling the key table.
type keySlot struct {
	signer   bool
	writable bool
	order    int
}

// BuildLegacyMessage serializes instructions into a legacy transaction
// message signed by a single fee payer.
//
// Key table order: writable signers (payer first), readonly signers,
// writable non-signers, readonly non-signers.
func BuildLegacyMessage(payer, blockhash string, instrs []Instruction) ([]byte, error) {
	slots := map[string]*keySlot{
		payer: {signer: true, writable: true, order: 0},
	}
	nextOrder := 1
	touch := func(key string, signer, writable bool) {
		slot, ok := slots[key]
		if !ok {
			slots[key] = &keySlot{signer: signer, writable: writable, order: nextOrder}
			nextOrder++
			return
		}
		slot.signer = slot.signer || signer
		slot.writable = slot.writable || writable
	}

	for _, ins := range instrs {
		touch(ins.ProgramID, false, false)
		for _, acct := range ins.Accounts {
			touch(acct.PubKey, acct.Signer, acct.Writable)
		}
	}

	// Partition into the four ordered groups, preserving first-touch order
	// within each group.
	groups := [4][]string{}
	for key, slot := range slots {
		idx := 0
		switch {
		case slot.signer && slot.writable:
			idx = 0
		case slot.signer:
			idx = 1
		case slot.writable:
			idx = 2
		default:
			idx = 3
		}
		groups[idx] = append(groups[idx], key)
	}
	for i := range groups {
		sortByOrder(groups[i], slots)
	}

	var keys []string
	var numSigned, numReadonlySigned, numReadonlyUnsigned int
	for i, group := range groups {
		keys = append(keys, group...)
		switch i {
		case 0:
			numSigned += len(group)
		case 1:
			numSigned += len(group)
			numReadonlySigned = len(group)
		case 3:
			numReadonlyUnsigned = len(group)
		}
	}

	index := make(map[string]byte, len(keys))
	for i, key := range keys {
		index[key] = byte(i)
	}

	// Header.
	msg := []byte{byte(numSigned), byte(numReadonlySigned), byte(numReadonlyUnsigned)}

	// Account keys.
	msg = appendCompactU16(msg, len(keys))
	for _, key := range keys {
		raw, err := base58.Decode(key)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("invalid account key %q", key)
		}
		msg = append(msg, raw...)
	}

	// Recent blockhash.
	rawHash, err := base58.Decode(blockhash)
	if err != nil || len(rawHash) != 32 {
		return nil, fmt.Errorf("invalid blockhash %q", blockhash)
	}
	msg = append(msg, rawHash...)

	// Instructions.
	msg = appendCompactU16(msg, len(instrs))
	for _, ins := range instrs {
		msg = append(msg, index[ins.ProgramID])
		msg = appendCompactU16(msg, len(ins.Accounts))
		for _, acct := range ins.Accounts {
			msg = append(msg, index[acct.PubKey])
		}
		msg = appendCompactU16(msg, len(ins.Data))
		msg = append(msg, ins.Data...)
	}

	return msg, nil
}

func sortByOrder(keys []string, slots map[string]*keySlot) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && slots[keys[j]].order < slots[keys[j-1]].order; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

// SignMessage wraps a message into a wire transaction with a single
// signature.
func SignMessage(message []byte, signer Signer) []byte {
	sig := signer.Sign(message)
	tx := appendCompactU16(nil, 1)
	tx = append(tx, sig...)
	return append(tx, message...)
}

// SignPrebuilt signs a serialized transaction produced by an external swap
// builder, filling the fee-payer signature slot. Works for both legacy and
// versioned transactions since the signature section layout is shared.
func SignPrebuilt(txBytes []byte, signer Signer) ([]byte, error) {
	numSigs, offset := decodeCompactU16(txBytes)
	if offset == 0 || numSigs == 0 {
		return nil, fmt.Errorf("malformed transaction: missing signature section")
	}

	sigEnd := offset + numSigs*64
	if len(txBytes) <= sigEnd {
		return nil, fmt.Errorf("malformed transaction: truncated at %d bytes", len(txBytes))
	}

	message := txBytes[sigEnd:]
	sig := signer.Sign(message)

	signed := make([]byte, len(txBytes))
	copy(signed, txBytes)
	copy(signed[offset:offset+64], sig)
	return signed, nil
}

// NewTransferInstruction builds a native lamport transfer.
func NewTransferInstruction(from, to string, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // Transfer
	binary.LittleEndian.PutUint64(data[4:12], lamports)

	return Instruction{
		ProgramID: solana.SystemProgram,
		Accounts: []AccountMeta{
			{PubKey: from, Signer: true, Writable: true},
			{PubKey: to, Writable: true},
		},
		Data: data,
	}
}

// NewComputeUnitLimitInstruction bounds the transaction's compute budget.
func NewComputeUnitLimitInstruction(units uint32) Instruction {
	data := make([]byte, 5)
	data[0] = 2 // SetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:5], units)
	return Instruction{ProgramID: solana.ComputeBudgetProgram, Data: data}
}

// NewComputeUnitPriceInstruction sets the priority fee in micro-lamports
// per compute unit.
func NewComputeUnitPriceInstruction(microLamports uint64) Instruction {
	data := make([]byte, 9)
	data[0] = 3 // SetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:9], microLamports)
	return Instruction{ProgramID: solana.ComputeBudgetProgram, Data: data}
}

// BuildTipTransaction builds and signs the relay tip payment.
func BuildTipTransaction(signer Signer, tipAccount string, lamports uint64, blockhash string) ([]byte, error) {
	msg, err := BuildLegacyMessage(signer.PublicKey(), blockhash, []Instruction{
		NewTransferInstruction(signer.PublicKey(), tipAccount, lamports),
	})
	if err != nil {
		return nil, fmt.Errorf("build tip message: %w", err)
	}
	return SignMessage(msg, signer), nil
}

package pool

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ammcore/internal/amm"
	"ammcore/internal/model"
)

func toRecord(key common.Hash, st amm.State) model.Pool {
	rec := model.Pool{
		Key:         key.Hex(),
		Seed:        st.Seed,
		MintX:       st.MintX.Hex(),
		MintY:       st.MintY.Hex(),
		ReserveX:    strconv.FormatUint(st.ReserveX, 10),
		ReserveY:    strconv.FormatUint(st.ReserveY, 10),
		ShareSupply: strconv.FormatUint(st.ShareSupply, 10),
		FeeBps:      st.FeeBps,
		Locked:      st.Locked,
		Precision:   st.Precision,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if st.Authority != nil {
		rec.Authority = st.Authority.Hex()
	}
	return rec
}

func fromRecord(rec model.Pool) (amm.State, error) {
	mintX, err := ParseIdentity(rec.MintX)
	if err != nil {
		return amm.State{}, fmt.Errorf("mint x: %w", err)
	}
	mintY, err := ParseIdentity(rec.MintY)
	if err != nil {
		return amm.State{}, fmt.Errorf("mint y: %w", err)
	}
	if want := Key(rec.Seed, mintX, mintY).Hex(); !strings.EqualFold(rec.Key, want) {
		return amm.State{}, fmt.Errorf("%w: stored under %s, derives %s", ErrKeyMismatch, rec.Key, want)
	}
	authority, err := ParseOptionalIdentity(rec.Authority)
	if err != nil {
		return amm.State{}, fmt.Errorf("authority: %w", err)
	}

	st := amm.State{
		Seed:      rec.Seed,
		MintX:     mintX,
		MintY:     mintY,
		FeeBps:    rec.FeeBps,
		Locked:    rec.Locked,
		Authority: authority,
		Precision: rec.Precision,
	}
	if st.ReserveX, err = parseAmount(rec.ReserveX); err != nil {
		return amm.State{}, fmt.Errorf("reserve x: %w", err)
	}
	if st.ReserveY, err = parseAmount(rec.ReserveY); err != nil {
		return amm.State{}, fmt.Errorf("reserve y: %w", err)
	}
	if st.ShareSupply, err = parseAmount(rec.ShareSupply); err != nil {
		return amm.State{}, fmt.Errorf("share supply: %w", err)
	}
	if err := st.Validate(); err != nil {
		return amm.State{}, fmt.Errorf("stored pool %s: %w", rec.Key, err)
	}
	return st, nil
}

func parseAmount(value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseUint(value, 10, 64)
}

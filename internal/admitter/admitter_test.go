package admitter

import (
	"encoding/binary"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/cache"
	"github.com/solarb/engine/internal/routeindex"
	"github.com/solarb/engine/internal/types"
)

func key(b byte) types.AccountKey {
	var k types.AccountKey
	k[0] = b
	return k
}

// cpmmAccountBytes builds a raw CPMM pool account matching cpmm.go's layout:
// 1 discriminator byte + mintA + mintB + vaultA + vaultB + fee num/den.
func cpmmAccountBytes(mintA, mintB, vaultA, vaultB types.AccountKey, feeNum, feeDen uint64) []byte {
	buf := make([]byte, 1+32+32+32+32+8+8)
	off := 1
	copy(buf[off:], mintA[:])
	off += 32
	copy(buf[off:], mintB[:])
	off += 32
	copy(buf[off:], vaultA[:])
	off += 32
	copy(buf[off:], vaultB[:])
	off += 32
	binary.LittleEndian.PutUint64(buf[off:], feeNum)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], feeDen)
	return buf
}

// tokenAccountBytes builds a raw SPL token account with the given mint and
// amount, matching accounts.go's 165-byte layout.
func tokenAccountBytes(mint types.AccountKey, amount uint64) []byte {
	buf := make([]byte, 165)
	copy(buf[0:32], mint[:])
	binary.LittleEndian.PutUint64(buf[64:72], amount)
	return buf
}

func newTestAdmitter(nativeMint types.AccountKey, minLQ uint64) (*Admitter, *cache.Cache, *routeindex.Index) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c := cache.New(log)
	ri := routeindex.New(4, nativeMint)
	return New(log, c, ri, nativeMint, minLQ), c, ri
}

func TestAdmitRejectsBelowNativeLiquidityFloor(t *testing.T) {
	native := key(1)
	other := key(2)
	vaultA, vaultB := key(10), key(11)
	poolKey := key(20)

	a, c, ri := newTestAdmitter(native, 1_000_000)

	// Both vaults are already known: the native-side vault is well below the
	// floor, the other side has plenty of liquidity.
	c.Register(vaultA, types.KindReserveVault)
	if err := c.Ingest(vaultA, tokenAccountBytes(native, 10)); err != nil {
		t.Fatalf("unexpected vault ingest error: %v", err)
	}
	c.Register(vaultB, types.KindReserveVault)
	if err := c.Ingest(vaultB, tokenAccountBytes(other, 5_000_000)); err != nil {
		t.Fatalf("unexpected vault ingest error: %v", err)
	}

	raw := cpmmAccountBytes(native, other, vaultA, vaultB, 25, 10_000)
	_, err := a.Admit(poolKey, types.KindPoolConstantProduct, raw)
	if err != ErrBelowNativeLiquidityFloor {
		t.Fatalf("expected ErrBelowNativeLiquidityFloor, got %v", err)
	}

	if _, ok := ri.Pool(poolKey); ok {
		t.Fatalf("expected a pool rejected for insufficient native liquidity to never reach the route index")
	}
}

func TestAdmitAcceptsAboveNativeLiquidityFloor(t *testing.T) {
	native := key(1)
	other := key(2)
	vaultA, vaultB := key(10), key(11)
	poolKey := key(20)

	a, c, ri := newTestAdmitter(native, 1_000_000)

	c.Register(vaultA, types.KindReserveVault)
	if err := c.Ingest(vaultA, tokenAccountBytes(native, 5_000_000)); err != nil {
		t.Fatalf("unexpected vault ingest error: %v", err)
	}
	c.Register(vaultB, types.KindReserveVault)
	if err := c.Ingest(vaultB, tokenAccountBytes(other, 5_000_000)); err != nil {
		t.Fatalf("unexpected vault ingest error: %v", err)
	}

	raw := cpmmAccountBytes(native, other, vaultA, vaultB, 25, 10_000)
	satellites, err := a.Admit(poolKey, types.KindPoolConstantProduct, raw)
	if err != nil {
		t.Fatalf("expected a pool above the native liquidity floor to be admitted, got %v", err)
	}
	if len(satellites) != 2 {
		t.Fatalf("expected the two vault satellites to be returned, got %d", len(satellites))
	}

	if _, ok := ri.Pool(poolKey); !ok {
		t.Fatalf("expected the admitted pool to be present in the route index")
	}
}

func TestAdmitProvisionallyAcceptsUnresolvedVault(t *testing.T) {
	native := key(1)
	other := key(2)
	vaultA, vaultB := key(10), key(11)
	poolKey := key(20)

	a, _, ri := newTestAdmitter(native, 1_000_000)

	// Vault never ingested: the admitter cannot judge its reserve yet, so it
	// must admit the pool provisionally rather than reject it outright.
	raw := cpmmAccountBytes(native, other, vaultA, vaultB, 25, 10_000)
	_, err := a.Admit(poolKey, types.KindPoolConstantProduct, raw)
	if err != nil {
		t.Fatalf("expected provisional admission when the native vault is unresolved, got %v", err)
	}
	if _, ok := ri.Pool(poolKey); !ok {
		t.Fatalf("expected the provisionally admitted pool to be present in the route index")
	}
}

func TestAdmitUnsupportedKind(t *testing.T) {
	a, _, _ := newTestAdmitter(key(1), 0)
	_, err := a.Admit(key(20), types.KindUnknown, []byte{1, 2, 3})
	if err != ErrUnsupportedKind {
		t.Fatalf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestAdmitDecodeFailureDoesNotRegisterPool(t *testing.T) {
	a, _, ri := newTestAdmitter(key(1), 0)
	_, err := a.Admit(key(20), types.KindPoolConstantProduct, []byte{1, 2, 3})
	if err == nil {
		t.Fatalf("expected a decode error for too-short pool account bytes")
	}
	if _, ok := ri.Pool(key(20)); ok {
		t.Fatalf("expected a pool that failed to decode to never reach the route index")
	}
}

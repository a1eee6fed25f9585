package discovery

import (
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/types"
)

// tryAdmitUnknown looks up which pool kind owner mints, if any, and hands
// the account off to the admitter. Accounts owned by a program this build
// has no ProgramKinds entry for (system accounts, unrelated programs
// incidentally touched by the same transaction) are silently ignored.
func (w *Watcher) tryAdmitUnknown(key types.AccountKey, owner solana.PublicKey, raw []byte) {
	kind, ok := w.cfg.ProgramKinds[owner]
	if !ok {
		return
	}
	satellites, err := w.admitter.Admit(key, kind, raw)
	if err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"key":  key.String(),
			"kind": kind.String(),
		}).Debug("discovery: admission failed")
		return
	}
	if len(satellites) > 0 {
		w.log.WithFields(logrus.Fields{
			"pool":       key.String(),
			"satellites": len(satellites),
		}).Info("discovery: admitted pool, subscribing to satellites")
	}
}

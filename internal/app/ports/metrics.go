package ports

type BattleOp string

const (
	BattleOpPropose BattleOp = "propose"
	BattleOpResolve BattleOp = "resolve"
	BattleOpAbandon BattleOp = "abandon"
)

// BattleMetrics counts battle operations by op and result. A conflict is a
// lost optimistic version race; any other error is a failure.
type BattleMetrics interface {
	RecordSuccess(op BattleOp)
	RecordConflict(op BattleOp)
	RecordFailure(op BattleOp)
}

// Package pgstore is the RelationalTable backend on PostgreSQL.
//
// A claim is one statement:
//
//	UPDATE jobkit_jobs SET status = 'running' ...
//	WHERE id = (SELECT id ... ORDER BY seq LIMIT 1 FOR UPDATE SKIP LOCKED)
//	RETURNING ...
//
// so concurrent workers skip rows another transaction is claiming instead of
// blocking on them, and no row is ever handed out twice. Tags are a text[] column
// matched with the && overlap operator.
package pgstore

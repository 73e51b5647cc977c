package database

import (
	"log"
	"sync"

	"github.com/gocql/gocql"
)

var warmupOnce sync.Once

// WarmupQueries exécute une fois les requêtes chaudes de chaque keyspace
// pour amorcer le cache de prepared statements de gocql avant le premier
// trafic réel. Best-effort : un échec est loggé, jamais bloquant.
func WarmupQueries() {
	warmupOnce.Do(func() {
		usersSession, err := GetUsersSession()
		if err != nil {
			log.Printf("⚠️ Préparation des requêtes users impossible: %v", err)
			return
		}

		warmQuery(usersSession, "SELECT user_id FROM users_by_username WHERE username = ?", "warmup")
		warmQuery(usersSession, `SELECT username, email, password, role, provider, points, profile_image
			FROM users WHERE user_id = ?`, "warmup")

		ordersSession, err := GetOrdersSession()
		if err != nil {
			log.Printf("⚠️ Préparation des requêtes paiements impossible: %v", err)
			return
		}

		zero := gocql.UUID{}
		warmQuery(ordersSession, `SELECT user_id, merchant_uid, imp_uid, amount, status, paid_at, created_at
			FROM payments WHERE payment_id = ?`, zero)
		warmQuery(ordersSession, `SELECT payment_id, user_id, reason, reject_reason, status, stripe_refund_id, created_at, updated_at
			FROM refunds WHERE refund_id = ?`, zero)

		log.Println("✅ Requêtes chaudes préparées")
	})
}

func warmQuery(session *gocql.Session, stmt string, key interface{}) {
	if err := session.Query(stmt, key).Exec(); err != nil && err != gocql.ErrNotFound {
		log.Printf("⚠️ Préparation de requête échouée: %v", err)
	}
}

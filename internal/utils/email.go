package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/wneessen/go-mail"

	"tenco_back_end/internal/models"
)

// SendRefundDecisionEmail notifie le demandeur de la décision prise sur sa
// demande de remboursement. L'envoi est best-effort : un échec SMTP ne fait
// jamais échouer la transition déjà commise.
func SendRefundDecisionEmail(to string, refund models.RefundRequest, amount int64) error {
	msg := mail.NewMsg()

	if err := msg.From("noreply@tenco.shop"); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}

	subject := "Votre demande de remboursement a été approuvée"
	if refund.Status == models.RefundStatusRejected {
		subject = "Votre demande de remboursement a été rejetée"
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, refundDecisionHTML(refund, amount))

	client, err := mail.NewClient(os.Getenv("SMTP_HOST"),
		mail.WithPort(587),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(os.Getenv("SMTP_USERNAME")),
		mail.WithPassword(os.Getenv("SMTP_PASSWORD")),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail de décision à", to)
	return client.DialAndSend(msg)
}

func refundDecisionHTML(refund models.RefundRequest, amount int64) string {
	if refund.Status == models.RefundStatusRejected {
		return fmt.Sprintf(`
<h2>Demande de remboursement rejetée</h2>
<p>Votre demande du paiement %s a été rejetée.</p>
<p>Motif : %s</p>`, refund.PaymentID, refund.RejectReason)
	}

	return fmt.Sprintf(`
<h2>Demande de remboursement approuvée</h2>
<p>Votre demande du paiement %s a été approuvée.</p>
<p>%d points ont été repris de votre solde.</p>`, refund.PaymentID, amount)
}

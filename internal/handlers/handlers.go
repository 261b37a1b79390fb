package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

func SendJSON(w http.ResponseWriter, v any) (int, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	w.Header().Add("Content-Type", "application/json")
	return w.Write(payload)
}

func sendJSONOrLog(w http.ResponseWriter, log logrus.FieldLogger, v any) {
	_, err := SendJSON(w, v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.WithError(err).WithField("response", v).Error("unable to send response")
	}
}

func sendError(w http.ResponseWriter, log logrus.FieldLogger, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(mustMarshal(wrapError(err))); err != nil {
		log.WithError(err).Error("unable to send error")
	}
}

func mustMarshal(v map[string]string) []byte {
	b, _ := json.Marshal(v)
	return b
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}

type StatusDTO struct {
	Status string `json:"status"`
}

func Status(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendJSONOrLog(w, log, StatusDTO{Status: "ok"})
	}
}

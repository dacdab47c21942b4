// Package premintapi exposes the admin HTTP surface spec §6 implies by
// naming Broadcast/Query as the process-internal command API: an HTTP
// front door translating requests into Controller commands. Grounded on
// the teacher's node/rpcstack.go httprouter + rs/cors wiring for its JSON
// HTTP endpoint.
package premintapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/mintpool-net/premintpool/control"
	"github.com/mintpool-net/premintpool/plog"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/swarm"
)

var errTimeout = errors.New("premintapi: timed out waiting for controller reply")

// Server is the admin HTTP API in front of a Controller's command channel.
type Server struct {
	commands chan<- control.Command
	log      plog.Logger
	handler  http.Handler
}

// New builds the routed, CORS-wrapped HTTP handler for commands.
func New(commands chan<- control.Command) *Server {
	s := &Server{commands: commands, log: plog.New("component", "premintapi")}

	router := httprouter.New()
	router.GET("/v1/premints", s.listAll)
	router.GET("/v1/premints/:kind/:id", s.getOne)
	router.POST("/v1/premints/:kind", s.broadcast)
	router.GET("/v1/network", s.networkState)
	router.GET("/v1/node", s.nodeInfo)

	s.handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

const commandTimeout = 5 * time.Second

func (s *Server) listAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reply := make(chan control.QueryResult, 1)
	s.commands <- control.Query{Kind: control.QueryListAll, Reply: reply}
	s.respondQuery(w, reply)
}

func (s *Server) getOne(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reply := make(chan control.QueryResult, 1)
	s.commands <- control.Query{
		Kind:        control.QueryDirectHandle,
		PremintKind: ps.ByName("kind"),
		ID:          ps.ByName("id"),
		Reply:       reply,
	}
	s.respondQuery(w, reply)
}

func (s *Server) respondQuery(w http.ResponseWriter, reply chan control.QueryResult) {
	select {
	case res := <-reply:
		if res.Err != nil {
			writeError(w, http.StatusNotFound, res.Err)
			return
		}
		writeJSON(w, http.StatusOK, res.Premints)
	case <-time.After(commandTimeout):
		writeError(w, http.StatusGatewayTimeout, errTimeout)
	}
}

func (s *Server) broadcast(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	kind := ps.ByName("kind")
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := premint.DecodeJSON(kind, body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply := make(chan error, 1)
	s.commands <- control.Broadcast{Premint: p, Reply: reply}

	select {
	case err := <-reply:
		if err != nil {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, p.Metadata())
	case <-time.After(commandTimeout):
		writeError(w, http.StatusGatewayTimeout, errTimeout)
	}
}

func (s *Server) networkState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reply := make(chan swarm.NetworkState, 1)
	s.commands <- control.ReturnNetworkState{Reply: reply}
	select {
	case state := <-reply:
		writeJSON(w, http.StatusOK, state)
	case <-time.After(commandTimeout):
		writeError(w, http.StatusGatewayTimeout, errTimeout)
	}
}

func (s *Server) nodeInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reply := make(chan swarm.NodeInfo, 1)
	s.commands <- control.ReturnNodeInfo{Reply: reply}
	select {
	case info := <-reply:
		writeJSON(w, http.StatusOK, info)
	case <-time.After(commandTimeout):
		writeError(w, http.StatusGatewayTimeout, errTimeout)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

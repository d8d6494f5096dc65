package main

import (
	"context"
	"log"

	"github.com/mindmesh-labs/mindmesh/ai"
	"github.com/mindmesh-labs/mindmesh/api"
	"github.com/mindmesh-labs/mindmesh/api/handlers"
	"github.com/mindmesh-labs/mindmesh/config"
	"github.com/mindmesh-labs/mindmesh/coordinator"
	"github.com/mindmesh-labs/mindmesh/core"
	"github.com/mindmesh-labs/mindmesh/knowledge"
	"github.com/mindmesh-labs/mindmesh/memory"
	"github.com/mindmesh-labs/mindmesh/personality"
	"github.com/mindmesh-labs/mindmesh/registry"
	"github.com/mindmesh-labs/mindmesh/storage"
)

func main() {
	cfg := config.Load()

	store, err := storage.OpenBadger(storage.DefaultConfig(cfg.DataDir))
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	broker, err := core.NewNATSBroker(cfg.NATSURL)
	if err != nil {
		log.Printf("Warning: NATS unavailable (%v), running without events", err)
		broker = nil
	} else {
		defer broker.Close()
	}

	roster := core.DefaultRoster()
	ids := make([]string, len(roster))
	for i, p := range roster {
		ids[i] = p.ID
	}

	mem := memory.NewStore(store, ids, memory.StoreConfig{})
	if err := mem.Load(); err != nil {
		log.Fatalf("Failed to load memory store: %v", err)
	}

	graph := knowledge.NewGraph(store, mem, broker, roster)
	if err := graph.Load(); err != nil {
		log.Fatalf("Failed to load knowledge graph: %v", err)
	}

	eng := personality.NewEngine(store, mem, roster, personality.EngineConfig{})
	if err := eng.Load(); err != nil {
		log.Fatalf("Failed to load personality profiles: %v", err)
	}

	generator := ai.NewOpenAIGenerator(cfg.OpenAIKey, ai.DefaultLLMConfig())
	reg := registry.New()
	for _, p := range roster {
		reg.Register(p, generator)
	}

	coord := coordinator.New(reg, mem, graph, eng, broker, coordinator.Config{
		Research: ai.NewResearcher(cfg.SerpKey, ai.DefaultSearchConfig()),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.StartWorkers(ctx)

	h := &handlers.Handlers{
		Registry:    reg,
		Memory:      mem,
		Graph:       graph,
		Personality: eng,
		Coordinator: coord,
		Broker:      broker,
	}
	feed := handlers.NewTurnFeed(coord)

	log.Printf("mindmesh listening on :%d with %d participants", cfg.APIPort, len(roster))
	if err := api.StartServer(cfg.APIPort, h, feed); err != nil {
		log.Fatalf("API server exited: %v", err)
	}
}

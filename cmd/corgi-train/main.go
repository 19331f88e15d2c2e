// Command corgi-train builds a small two-layer MLP and trains it on a
// synthetic regression task, printing the loss every few epochs so a
// reader can confirm the autodiff tape is actually learning.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/corgi-go/corgi/autodiff"
	"github.com/corgi-go/corgi/layer"
	"github.com/corgi-go/corgi/model"
	"github.com/corgi-go/corgi/nnfunc"
	"github.com/corgi-go/corgi/optimizer"
	"github.com/corgi-go/corgi/tensor"
)

type config struct {
	epochs       int
	samples      int
	hiddenUnits  int
	learningRate float64
	seed         int64
	logEvery     int
}

func main() {
	cfg := parseFlags()

	log.Printf("corgi-train: %d epochs, %d samples/epoch, hidden=%d, lr=%v", cfg.epochs, cfg.samples, cfg.hiddenUnits, cfg.learningRate)

	if err := run(cfg); err != nil {
		log.Fatalf("training failed: %v", err)
	}
}

func parseFlags() config {
	var cfg config

	flag.IntVar(&cfg.epochs, "epochs", 200, "number of training epochs")
	flag.IntVar(&cfg.samples, "samples", 64, "synthetic samples generated per epoch")
	flag.IntVar(&cfg.hiddenUnits, "hidden", 8, "hidden layer width")
	flag.Float64Var(&cfg.learningRate, "lr", 0.05, "optimizer learning rate")
	flag.Int64Var(&cfg.seed, "seed", 1, "random seed for synthetic data")
	flag.IntVar(&cfg.logEvery, "log-every", 20, "print loss every N epochs")
	flag.Parse()

	return cfg
}

// run trains a 1-input, hidden, 1-output MLP to approximate sin(x) over
// [-pi, pi], which is a deterministic, easy-to-eyeball regression target.
func run(cfg config) error {
	rng := rand.New(rand.NewSource(cfg.seed))

	hidden, err := layer.NewDense("hidden", 1, cfg.hiddenUnits, layer.WithActivation(nnfunc.Tanh))
	if err != nil {
		return fmt.Errorf("build hidden layer: %w", err)
	}

	output, err := layer.NewDense("output", cfg.hiddenUnits, 1)
	if err != nil {
		return fmt.Errorf("build output layer: %w", err)
	}

	net := model.NewSequential(hidden, output)
	opt := optimizer.NewAdam(cfg.learningRate)
	store := net.ParamStore()

	for epoch := 0; epoch < cfg.epochs; epoch++ {
		var epochLoss float64

		for s := 0; s < cfg.samples; s++ {
			x := rng.Float64()*2*math.Pi - math.Pi
			target := math.Sin(x)

			xNode := autodiff.Leaf(tensor.FromFlat([]float64{x}))

			pred, err := net.Forward(xNode)
			if err != nil {
				return fmt.Errorf("forward: %w", err)
			}

			targetNode := autodiff.Leaf(tensor.FromFlat([]float64{target}))

			loss, err := nnfunc.MSE(pred, targetNode)
			if err != nil {
				return fmt.Errorf("loss: %w", err)
			}

			if err := autodiff.Backward(loss, nil); err != nil {
				return fmt.Errorf("backward: %w", err)
			}

			epochLoss += loss.Values()[0]

			if err := opt.Step(store); err != nil {
				return fmt.Errorf("optimizer step: %w", err)
			}
		}

		if cfg.logEvery > 0 && epoch%cfg.logEvery == 0 {
			log.Printf("epoch %d: mean loss %.6f", epoch, epochLoss/float64(cfg.samples))
		}
	}

	return nil
}

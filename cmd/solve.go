// cmd/solve.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var scenarioPath string

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a plant dispatch scenario from a YAML file",
	Run: func(cmd *cobra.Command, args []string) {
		sc, err := LoadScenario(scenarioPath)
		if err != nil {
			logrus.WithError(err).Fatal("loading scenario")
		}
		_, s, err := sc.Build()
		if err != nil {
			logrus.WithError(err).Fatal("building solver")
		}
		if err := s.Solve(); err != nil {
			logrus.WithError(err).Error("solve failed")
			fmt.Println("solve failed:", err)
			os.Exit(1)
		}

		T := s.T()
		logrus.WithFields(logrus.Fields{"S": s.S(), "T": T, "delta": s.Delta()}).Info("solve complete")
		top := T - 1
		sumA, _ := s.SumA(top)
		sumB, _ := s.SumB(top)
		avgHK, _ := s.AvgHK(top)
		fmt.Printf("sumA[%d]=%.4f sumB[%d]=%.4f avgHK[%d]=%.4f\n", top, sumA, top, sumB, top, avgHK)

		if sc.Dispatch != nil {
			if err := s.SetDispatch(*sc.Dispatch); err != nil {
				logrus.WithError(err).Error("dispatch failed")
				return
			}
			for i := range s.Units {
				p, _ := s.UnitDispatchP(i)
				q, _ := s.UnitDispatchQ(i)
				hk, _ := s.UnitDispatchHK(i)
				fmt.Printf("%s: P=%.3f Q=%.3f HK=%.4f\n", s.Units[i].Name, p, q, hk)
			}
		}
	},
}

func init() {
	solveCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a YAML scenario file")
	solveCmd.MarkFlagRequired("scenario")
}

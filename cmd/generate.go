/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/blockmesh/InputParameters"
	"github.com/notargets/blockmesh/blockmesh"
	"github.com/notargets/blockmesh/utils"
)

type Generate struct {
	InputFile string
	Ranks     int
	Axis      int
	Partition bool // Slice the blocks into one partition per rank before generating
	Overlap   int
	Profile   bool
}

// GenerateCmd represents the generate command
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the refined mesh of a block description",
	Long: `Reads a block description in YAML and generates the refined mesh on
one or more ranks, printing the statistics of each rank's part`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		gen := &Generate{}
		if gen.InputFile, err = cmd.Flags().GetString("inputFile"); err != nil {
			panic(err)
		}
		gen.Partition, _ = cmd.Flags().GetBool("partition")
		gen.Overlap, _ = cmd.Flags().GetInt("overlap")
		gen.Profile, _ = cmd.Flags().GetBool("profile")
		gen.Ranks = viper.GetInt("ranks")
		if gen.Axis, err = parseDirection(viper.GetString("direction")); err != nil {
			return
		}
		if gen.Profile {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}
		var ip *InputParameters.BlockMeshInput
		if ip, err = readInput(gen.InputFile); err != nil {
			return
		}
		if log.IsLevelEnabled(log.DebugLevel) {
			ip.Print()
		}
		var asm []*blockmesh.Assembly
		if asm, err = RunGenerate(gen, ip); err != nil {
			return
		}
		for _, a := range asm {
			a.Mesh.PrintStatistics(a.Rank)
		}
		return
	},
}

func init() {
	rootCmd.AddCommand(GenerateCmd)
	GenerateCmd.Flags().StringP("inputFile", "I", "", "YAML file with the block description")
	GenerateCmd.Flags().BoolP("partition", "p", false, "slice the blocks into one partition per rank")
	GenerateCmd.Flags().Int("overlap", 0, "layers of ghost elements, only supported on one rank")
	GenerateCmd.Flags().Bool("profile", false, "write a CPU profile to the current directory")
}

func readInput(fileName string) (ip *InputParameters.BlockMeshInput, err error) {
	if len(fileName) == 0 {
		return nil, fmt.Errorf("must supply a block description file (-I, --inputFile)")
	}
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.BlockMeshInput{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	return
}

// RunGenerate generates the mesh on gen.Ranks goroutine ranks, the returned
// assemblies are indexed by rank
func RunGenerate(gen *Generate, ip *InputParameters.BlockMeshInput) (asm []*blockmesh.Assembly, err error) {
	var bd *blockmesh.BlockData
	if bd, err = ip.ToBlockData(); err != nil {
		return
	}
	if gen.Ranks < 1 {
		return nil, fmt.Errorf("number of ranks must be positive, have %d", gen.Ranks)
	}
	switch {
	case gen.Partition:
		if bd, err = blockmesh.PartitionBlocks(bd, gen.Ranks, gen.Axis); err != nil {
			return
		}
	case gen.Ranks > 1 && len(bd.BlockDistribution) == 0:
		bd.BlockDistribution = utils.EvenBlockDistribution(bd.NumBlocks(), gen.Ranks)
	}
	asm = make([]*blockmesh.Assembly, gen.Ranks)
	err = utils.RunLocal(gen.Ranks, func(comm utils.Communicator) (err error) {
		asm[comm.Rank()], err = blockmesh.BuildMesh(comm, bd, blockmesh.Options{Overlap: gen.Overlap})
		return
	})
	if err != nil {
		return nil, err
	}
	return
}

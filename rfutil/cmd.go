/*
Copyright © 2024 the RFContrail authors.
This file is part of RFContrail.

RFContrail is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

RFContrail is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with RFContrail.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package rfutil contains the command-line interface and the configuration
// handling of RFContrail.
package rfutil

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/rfcontrail"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

// Configuration groups of the two diffuse parts.
const (
	SolarDiffuseGroup       = "solar_diffuse"
	TerrestrialDiffuseGroup = "terrestrial_diffuse"
)

// diffuseOptions returns the options of a diffuse part. The optical
// coefficients default to NaN, which means they are looked up in the band
// table of the part.
func diffuseOptions(group string) []option {
	run := []*pflag.FlagSet{runCmd.PersistentFlags()}
	nan := math.NaN()
	o := []option{
		{name: "bins_phi", usage: "number of azimuth bins of the incident direction grid", defaultVal: 12},
		{name: "bins_theta", usage: "number of zenith bins of the incident direction grid", defaultVal: 12},
		{name: "resolution_s", usage: "width of the exit zenith angle bins [deg]; must divide 180", defaultVal: 10},
		{name: "distance", usage: "length of the contrail along the flight track [m]", defaultVal: 1000.0},
		{name: "spectral_band_index", usage: "index of the spectral band in the optical band table", defaultVal: 0},
		{name: "g", usage: "asymmetry factor of the phase function; NaN means band table", defaultVal: nan},
		{name: "absorption_factor", usage: "absorption efficiency Qabs; NaN means band table", defaultVal: nan},
		{name: "scattering_factor", usage: "scattering efficiency Qsca; NaN means band table", defaultVal: nan},
		{name: "lambda", usage: "wavelength [μm]; NaN means band table", defaultVal: nan},
		{name: "radius_incident", usage: "radius of the cylinder that photons enter through [m]", defaultVal: 1000.0},
		{name: "radius_droplet", usage: "effective ice crystal radius [μm]", defaultVal: 10.0},
		{name: "num_sca", usage: "number of angular bins of the scattering phase function", defaultVal: 1800},
		{name: "sigma_h", usage: "horizontal standard deviation of the ice crystal distribution [m]", defaultVal: 200.0},
		{name: "sigma_v", usage: "vertical standard deviation of the ice crystal distribution [m]", defaultVal: 100.0},
		{name: "sigma_s", usage: "covariance of the ice crystal distribution [m²]; always 0 for terrestrial runs", defaultVal: 0.0},
		{name: "num_ice", usage: "number of ice crystals in the contrail", defaultVal: 1.0e14},
		{name: "max_scatter_events", usage: "limit on scattering events per photon", defaultVal: rfcontrail.DefaultMaxEvents},
	}
	for i := range o {
		o[i].name = group + "." + o[i].name
		o[i].usage = fmt.Sprintf(`
              %s is the %s.`, o[i].name, o[i].usage)
		o[i].flagsets = run
	}
	return o
}

func init() {
	run := []*pflag.FlagSet{runCmd.PersistentFlags()}
	options = []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug logging.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "threads",
			usage: `
              threads is the number of concurrent workers that trace
              photons. Shared random mode always uses one.`,
			shorthand:  "t",
			defaultVal: runtime.NumCPU(),
			flagsets:   run,
		},
		{
			name: "force",
			usage: `
              force overwrites output files of the same spectral band.`,
			shorthand:  "f",
			defaultVal: false,
			flagsets:   run,
		},
		{
			name: "metrics",
			usage: `
              metrics writes a TOML file with the photon statistics of each
              diffuse run to the metrics subdirectory of the output directory.`,
			shorthand:  "m",
			defaultVal: false,
			flagsets:   run,
		},
		{
			name: "common.num_photons",
			usage: `
              common.num_photons is the number of photons traced for each
              incident direction.`,
			defaultVal: 10000,
			flagsets:   run,
		},
		{
			name: "common.psi",
			usage: `
              common.psi is the aircraft heading as a deviation from
              geographic north [deg].`,
			defaultVal: 0.0,
			flagsets:   run,
		},
		{
			name: "common.output_prefix",
			usage: `
              common.output_prefix is prepended to the names of the output
              tables.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "common.output_dir",
			usage: `
              common.output_dir is the directory that the output tables are
              written to. It can contain environment variables.`,
			defaultVal: ".",
			flagsets:   run,
		},
		{
			name: "common.seed",
			usage: `
              common.seed seeds the random number generators. In worker mode
              0 means a seed taken from the clock.`,
			defaultVal: 0,
			flagsets:   run,
		},
		{
			name: "common.random_mode",
			usage: `
              common.random_mode selects the random number generators:
              'shared' uses one seeded generator and a single worker, 'worker'
              gives each worker its own generator and 'task' seeds a generator
              for each direction from the seed and the direction index, so
              results do not depend on the number of workers.`,
			defaultVal: "worker",
			flagsets:   run,
		},
		{
			name: "common.log_file",
			usage: `
              common.log_file is an optional file that the log is also
              written to.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "solar_direct.sza",
			usage: `
              solar_direct.sza is the solar zenith angle [rad].`,
			defaultVal: 0.5,
			flagsets:   run,
		},
		{
			name: "solar_direct.phi0",
			usage: `
              solar_direct.phi0 is the solar azimuth relative to the flight
              direction [rad].`,
			defaultVal: 0.0,
			flagsets:   run,
		},
		{
			name: "optics.solar_band_table",
			usage: `
              optics.solar_band_table is a TOML file with the optical
              properties of ice crystals in the solar spectral bands.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "optics.terrestrial_band_table",
			usage: `
              optics.terrestrial_band_table is a TOML file with the optical
              properties of ice crystals in the terrestrial spectral bands.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "optics.shape",
			usage: `
              optics.shape selects a single crystal shape (plate, column,
              hollow_column, rosette4, rosette6 or aggregate) instead of the
              default mixture of shapes.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "directory",
			usage: `
              directory holds the output tables that radiative forcing is
              calculated from. The result is written to the same directory.`,
			shorthand:  "d",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{rfCmd.Flags()},
		},
		{
			name: "uvspec",
			usage: `
              uvspec is the libRadtran uvspec radiance output file.`,
			shorthand:  "u",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rfCmd.Flags()},
		},
		{
			name: "twostr",
			usage: `
              twostr is the libRadtran twostr irradiance output file.`,
			shorthand:  "w",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rfCmd.Flags()},
		},
		{
			name: "lambda_unit",
			usage: `
              lambda_unit is the unit of the wavelength column of the
              libRadtran output files, e.g. nm, um or cm-1 for wavenumbers.`,
			defaultVal: "nm",
			flagsets:   []*pflag.FlagSet{rfCmd.Flags()},
		},
		{
			name: "plot",
			usage: `
              plot is an optional PNG file for a plot of the radiative
              forcing spectrum.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rfCmd.Flags()},
		},
	}
	options = append(options, diffuseOptions(SolarDiffuseGroup)...)
	options = append(options, diffuseOptions(TerrestrialDiffuseGroup)...)

	Cfg = viper.New()

	// Set the prefix for configuration environment variables, e.g.
	// RFCONTRAIL_SOLAR_DIFFUSE_BINS_PHI.
	Cfg.SetEnvPrefix("RFCONTRAIL")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	runCmd.AddCommand(solarCmd)
	runCmd.AddCommand(terrestrialCmd)
	runCmd.AddCommand(bothCmd)
	Root.AddCommand(rfCmd)
	Root.AddCommand(variationCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return &rfcontrail.ConfigError{Param: "config", Err: fmt.Errorf("problem reading configuration file: %v", err)}
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "rfcontrail",
	Short: "A Monte Carlo radiative transfer model for contrails.",
	Long: `RFContrail traces photons through aircraft contrails to tabulate how
much radiation a contrail absorbs and scatters for each incident direction,
and combines the tables with libRadtran radiances to calculate radiative forcing.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RFCONTRAIL_group_var' where
'group_var' is the name of the variable to be set with the dot replaced by an
underscore. Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of RFContrail.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("RFContrail v%s\n", rfcontrail.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a contrail simulation.",
	Long: `run traces photons through the contrail and writes the photon statistics
of each incident direction. Use the subcommands to choose the spectral part.`,
	DisableAutoGenTag: true,
}

var solarCmd = &cobra.Command{
	Use:   "solar",
	Short: "Run the direct and diffuse solar simulations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParts(cmd, rfcontrail.Solar)
	},
	DisableAutoGenTag: true,
}

var terrestrialCmd = &cobra.Command{
	Use:   "terrestrial",
	Short: "Run the diffuse terrestrial simulation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParts(cmd, rfcontrail.Terrestrial)
	},
	DisableAutoGenTag: true,
}

var bothCmd = &cobra.Command{
	Use:   "both",
	Short: "Run the solar and the terrestrial simulations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParts(cmd, rfcontrail.Solar, rfcontrail.Terrestrial)
	},
	DisableAutoGenTag: true,
}

var rfCmd = &cobra.Command{
	Use:   "rf",
	Short: "Calculate radiative forcing.",
	Long: `rf combines the solar direct, solar diffuse and terrestrial diffuse output
tables in a directory with libRadtran output and writes radiative_forcing.csv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunRF(cmd, Cfg)
	},
	DisableAutoGenTag: true,
}

var variationCmd = &cobra.Command{
	Use:   "variation metrics_file...",
	Short: "Compare the photon statistics of repeated runs.",
	Long: `variation reads the metrics files written by 'run --metrics' for
repeated runs with the same direction grid and prints the mean squared
deviation of their average absorbed and transmitted photon counts.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunVariation(cmd, args)
	},
	DisableAutoGenTag: true,
}

// runParts configures and runs the given spectral parts.
func runParts(cmd *cobra.Command, kinds ...rfcontrail.Kind) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return RunSimulation(ctx, cmd, Cfg, kinds...)
}
